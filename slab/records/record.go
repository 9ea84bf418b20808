package records

import (
	"fmt"

	"github.com/joshuapare/slabkit/internal/format"
	"github.com/joshuapare/slabkit/pkg/types"
)

// Record layout (little-endian):
//
//	0x00  Key1     [32]byte
//	0x20  Key2     [32]byte
//	0x40  Key3     [32]byte
//	0x60  Key4     [32]byte
//	0x80  Group.A  uint64
//	0x88  Group.B  uint64
//	0x90  Group.C  uint64
//	0x98  Group.D  uint64
//	0xA0  Padding  [199]byte
const (
	groupOffset   = 4 * types.KeySize
	paddingOffset = groupOffset + GroupSize

	// GroupSize is the width of the nested integer group.
	GroupSize = 4 * 8

	// PaddingSize is the width of the trailing padding.
	PaddingSize = 199

	// RecordSize is the serialized width of a Record. It never depends on field values.
	RecordSize = paddingOffset + PaddingSize

	// SlotSize is one tag byte plus a record.
	SlotSize = 1 + RecordSize
)

const (
	slotEmpty   byte = 0
	slotPresent byte = 1
)

// Group is the nested four-field integer group of a Record.
type Group struct {
	A, B, C, D uint64
}

// Record is a fixed-width plain-old-data entry.
type Record struct {
	Key1, Key2, Key3, Key4 types.Key
	Group                  Group
	Padding                [PaddingSize]byte
}

// MarshalTo writes the record into b, which must hold at least RecordSize bytes.
func (r *Record) MarshalTo(b []byte) error {
	if len(b) < RecordSize {
		return fmt.Errorf("%w: record needs %d bytes, have %d", types.ErrOutOfBounds, RecordSize, len(b))
	}
	r.put((*[RecordSize]byte)(b))
	return nil
}

// put is MarshalTo for a buffer whose size is already right.
func (r *Record) put(dst *[RecordSize]byte) {
	b := dst[:]
	copy(b[0*types.KeySize:], r.Key1[:])
	copy(b[1*types.KeySize:], r.Key2[:])
	copy(b[2*types.KeySize:], r.Key3[:])
	copy(b[3*types.KeySize:], r.Key4[:])
	format.PutU64(b, groupOffset, r.Group.A)
	format.PutU64(b, groupOffset+8, r.Group.B)
	format.PutU64(b, groupOffset+16, r.Group.C)
	format.PutU64(b, groupOffset+24, r.Group.D)
	copy(b[paddingOffset:RecordSize], r.Padding[:])
}

// UnmarshalFrom reads a record from b, which must hold at least RecordSize bytes.
func (r *Record) UnmarshalFrom(b []byte) error {
	if len(b) < RecordSize {
		return fmt.Errorf("%w: record needs %d bytes, have %d", types.ErrOutOfBounds, RecordSize, len(b))
	}
	copy(r.Key1[:], b[0*types.KeySize:])
	copy(r.Key2[:], b[1*types.KeySize:])
	copy(r.Key3[:], b[2*types.KeySize:])
	copy(r.Key4[:], b[3*types.KeySize:])
	r.Group = Group{
		A: format.ReadU64(b, groupOffset),
		B: format.ReadU64(b, groupOffset+8),
		C: format.ReadU64(b, groupOffset+16),
		D: format.ReadU64(b, groupOffset+24),
	}
	copy(r.Padding[:], b[paddingOffset:RecordSize])
	return nil
}

// encodeSlot writes an empty slot (rec == nil) or a present one into dst.
func encodeSlot(dst *[SlotSize]byte, rec *Record) {
	if rec == nil {
		clear(dst[:])
		return
	}
	dst[0] = slotPresent
	rec.put((*[RecordSize]byte)(dst[1:]))
}

// decodeSlot returns nil for an empty slot.
func decodeSlot(src []byte) (*Record, error) {
	switch src[0] {
	case slotEmpty:
		return nil, nil
	case slotPresent:
		rec := new(Record)
		if err := rec.UnmarshalFrom(src[1:SlotSize]); err != nil {
			return nil, err
		}
		return rec, nil
	default:
		return nil, fmt.Errorf("%w: slot tag %d", types.ErrCorrupt, src[0])
	}
}

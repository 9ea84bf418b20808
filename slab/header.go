package slab

import (
	"bytes"
	"fmt"
	"time"

	"github.com/joshuapare/slabkit/internal/format"
	"github.com/joshuapare/slabkit/pkg/types"
)

// Header is a zero-copy view of the header page at the start of a slab file.
// All accessors read directly from the mapping; the view is invalidated by
// Append, which replaces it.
type Header struct {
	raw []byte // len == format.HeaderSize
}

// ParseHeader validates the signature, version and kind and returns a header view.
func ParseHeader(b []byte) (*Header, error) {
	if len(b) < format.HeaderSize {
		return nil, fmt.Errorf("%w: file too small for header (%d)", types.ErrNotSlab, len(b))
	}
	sig := b[format.SignatureOffset : format.SignatureOffset+format.SignatureSize]
	if !bytes.Equal(sig, format.Signature) {
		return nil, types.ErrNotSlab
	}
	h := &Header{raw: b[:format.HeaderSize:format.HeaderSize]}
	if v := h.Version(); v != format.Version {
		return nil, fmt.Errorf("%w: unsupported version %d", types.ErrNotSlab, v)
	}
	if !h.Kind().Valid() {
		return nil, fmt.Errorf("%w: unknown kind %d", types.ErrNotSlab, uint32(h.Kind()))
	}
	return h, nil
}

// writeHeader lays out a fresh header page in b.
func writeHeader(b []byte, kind format.Kind, dataSize int64, owner types.Key, tag string) {
	clear(b[:format.HeaderSize])
	copy(b[format.SignatureOffset:], format.Signature)
	format.PutU32(b, format.VersionOffset, format.Version)
	format.PutU32(b, format.KindOffset, uint32(kind))
	format.PutU64(b, format.DataSizeOffset, uint64(dataSize))
	format.PutU64(b, format.TimeStampOffset, uint64(time.Now().UnixNano()))
	copy(b[format.OwnerOffset:format.OwnerOffset+format.OwnerSize], owner[:])
	copy(b[format.TagOffset:format.TagOffset+format.TagSize], tag)
	format.PutU32(b, format.CheckSumOffset, format.Checksum(b))
}

// Raw returns the raw bytes of the header page.
func (h *Header) Raw() []byte { return h.raw }

// Sequence1 returns the primary sequence number.
func (h *Header) Sequence1() uint32 { return format.ReadU32(h.raw, format.PrimarySeqOffset) }

// Sequence2 returns the secondary sequence number.
func (h *Header) Sequence2() uint32 { return format.ReadU32(h.raw, format.SecondarySeqOffset) }

// IsClean reports whether no invocation was left half-committed.
func (h *Header) IsClean() bool { return h.Sequence1() == h.Sequence2() }

// TimeStamp returns the last-write time recorded in the header.
func (h *Header) TimeStamp() time.Time {
	return time.Unix(0, int64(format.ReadU64(h.raw, format.TimeStampOffset)))
}

func (h *Header) Version() uint32 { return format.ReadU32(h.raw, format.VersionOffset) }

func (h *Header) Kind() format.Kind { return format.Kind(format.ReadU32(h.raw, format.KindOffset)) }

// DataSize returns the size of the data region that follows the header page.
func (h *Header) DataSize() int64 { return int64(format.ReadU64(h.raw, format.DataSizeOffset)) }

// Owner returns the owner identity the slab was created for.
func (h *Header) Owner() types.Key {
	var k types.Key
	copy(k[:], h.raw[format.OwnerOffset:format.OwnerOffset+format.OwnerSize])
	return k
}

// Tag returns the namespace tag with NUL padding removed.
func (h *Header) Tag() string {
	raw := h.raw[format.TagOffset : format.TagOffset+format.TagSize]
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return string(raw)
}

// CheckSum returns the stored header checksum.
func (h *Header) CheckSum() uint32 { return format.ReadU32(h.raw, format.CheckSumOffset) }

// ChecksumValid reports whether the stored checksum matches the header contents.
func (h *Header) ChecksumValid() bool { return h.CheckSum() == format.Checksum(h.raw) }

// ValidateSanity checks the header against the actual file size. A file may be
// longer than the recorded data size (an interrupted grow); it may never be shorter.
func (h *Header) ValidateSanity(fileSize int64) error {
	size := h.DataSize()
	if size < 0 || size > fileSize-format.HeaderSize {
		return fmt.Errorf("%w: data size %d exceeds file size %d", types.ErrCorrupt, size, fileSize)
	}
	return nil
}

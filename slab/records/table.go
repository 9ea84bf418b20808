// Package records implements the fixed-length table of optional fixed-width
// records.
//
// A table of N slots occupies N*SlotSize contiguous bytes. Initialization
// writes one slot at a time straight into the mapping, so its transient
// footprint is a single slot frame whatever N is. InitTransient keeps the
// other strategy (build the whole table as a local value, then copy it in)
// so its stack overflow can be reproduced; nothing else should call it.
package records

import (
	"fmt"

	"github.com/joshuapare/slabkit/internal/buf"
	"github.com/joshuapare/slabkit/internal/format"
	"github.com/joshuapare/slabkit/pkg/types"
	"github.com/joshuapare/slabkit/slab"
	"github.com/joshuapare/slabkit/slab/budget"
	"github.com/joshuapare/slabkit/slab/dirty"
	"github.com/joshuapare/slabkit/slab/realloc"
)

// DefaultLength is the slot count of a table unless configured otherwise.
const DefaultLength = 10

// Options wire a Table to the invocation it runs in. Every field is optional.
type Options struct {
	Tracker dirty.DirtyTracker
	Meter   *budget.Meter
	Limits  realloc.Limits
}

// Table is a fixed-length sequence of optional records. Its length is fixed
// when the region is created.
type Table struct {
	r    *slab.Region
	opts Options
}

// slot is the in-memory form of one slot, used only by InitTransient.
type slot struct {
	present bool
	record  Record
}

// Create allocates a table of length slots at path. The region is zero-filled,
// which already reads as all-empty; call Init to write the slots explicitly.
func Create(path string, length int, owner types.Key, tag string, opts Options) (*Table, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: table length %d", types.ErrInvalidSize, length)
	}
	size, ok := buf.MulOverflowSafe(length, SlotSize)
	if !ok {
		return nil, fmt.Errorf("%w: %d slots of %d bytes", types.ErrAllocationTooLarge, length, SlotSize)
	}
	if err := opts.Limits.CheckAllocation(int64(size)); err != nil {
		return nil, err
	}
	r, err := slab.Create(path, format.KindTable, int64(size), owner, tag)
	if err != nil {
		return nil, err
	}
	return &Table{r: r, opts: opts}, nil
}

// New wraps an opened region. The region must hold a whole number of slots.
func New(r *slab.Region, opts Options) (*Table, error) {
	if k := r.Kind(); k != format.KindTable {
		return nil, fmt.Errorf("%w: want %s, have %s", types.ErrKindMismatch, format.KindTable, k)
	}
	size := r.DataSize()
	if size == 0 || size%SlotSize != 0 {
		return nil, fmt.Errorf("%w: table region of %d bytes is not a multiple of %d", types.ErrCorrupt, size, SlotSize)
	}
	if _, err := buf.CheckListBounds(len(r.Data()), 0, int(size/SlotSize), SlotSize); err != nil {
		return nil, fmt.Errorf("%w: table slots: %v", types.ErrCorrupt, err)
	}
	return &Table{r: r, opts: opts}, nil
}

// Region returns the backing region.
func (t *Table) Region() *slab.Region { return t.r }

// Len returns the number of slots.
func (t *Table) Len() int { return int(t.r.DataSize() / SlotSize) }

// Init empties every slot, writing each one directly into storage. Every
// slot needs the same single frame, so if the first fits they all do and a
// budget failure never leaves a partially written table.
func (t *Table) Init() error {
	data := t.r.Data()
	for i := range t.Len() {
		if err := t.writeSlot(data, i, nil); err != nil {
			return fmt.Errorf("table: init slot %d: %w", i, err)
		}
	}
	return nil
}

// InitTransient empties every slot by building the whole table as a local
// value and a serialized copy, then storing the copy. The serialized copy is
// still live while the value it was built from is, so both are charged and
// it needs 2*Len()*SlotSize bytes of stack.
func (t *Table) InitTransient() error {
	n := t.Len()
	whole, err := buf.CheckListBounds(len(t.r.Data()), 0, n, SlotSize)
	if err != nil {
		return fmt.Errorf("%w: table slots: %v", types.ErrCorrupt, err)
	}

	releaseValue, err := t.opts.Meter.Frame(whole)
	if err != nil {
		return fmt.Errorf("table: build %d slots as a local value: %w", n, err)
	}
	defer releaseValue()
	slots := make([]slot, n)

	releaseCopy, err := t.opts.Meter.Frame(whole)
	if err != nil {
		return fmt.Errorf("table: serialize %d slots: %w", n, err)
	}
	defer releaseCopy()
	raw := make([]byte, whole)
	for i, s := range slots {
		var rec *Record
		if s.present {
			rec = &s.record
		}
		encodeSlot((*[SlotSize]byte)(raw[i*SlotSize:]), rec)
	}

	if t.opts.Tracker != nil {
		t.opts.Tracker.Add(format.HeaderSize, whole)
	}
	copy(t.r.Data(), raw)
	return nil
}

// SetSlot stores rec at index, or empties the slot when rec is nil. Only that
// slot is written.
func (t *Table) SetSlot(index int, rec *Record) error {
	if index < 0 || index >= t.Len() {
		return fmt.Errorf("%w: slot %d of %d", types.ErrOutOfBounds, index, t.Len())
	}
	return t.writeSlot(t.r.Data(), index, rec)
}

// Slot returns the record at index, or nil when the slot is empty.
func (t *Table) Slot(index int) (*Record, error) {
	if index < 0 || index >= t.Len() {
		return nil, fmt.Errorf("%w: slot %d of %d", types.ErrOutOfBounds, index, t.Len())
	}
	release, err := t.opts.Meter.Frame(SlotSize)
	if err != nil {
		return nil, err
	}
	defer release()
	src, ok := buf.Slice(t.r.Data(), index*SlotSize, SlotSize)
	if !ok {
		return nil, fmt.Errorf("%w: slot %d beyond region", types.ErrCorrupt, index)
	}
	return decodeSlot(src)
}

// writeSlot encodes one slot in a single frame and copies it into place.
func (t *Table) writeSlot(data []byte, index int, rec *Record) error {
	release, err := t.opts.Meter.Frame(SlotSize)
	if err != nil {
		return err
	}
	defer release()

	dst, ok := buf.Slice(data, index*SlotSize, SlotSize)
	if !ok {
		return fmt.Errorf("%w: slot %d beyond region", types.ErrCorrupt, index)
	}
	var frame [SlotSize]byte
	encodeSlot(&frame, rec)
	if t.opts.Tracker != nil {
		t.opts.Tracker.Add(format.HeaderSize+index*SlotSize, SlotSize)
	}
	copy(dst, frame[:])
	return nil
}

// Close closes the backing region.
func (t *Table) Close() error { return t.r.Close() }

// Package fixed implements the fixed-capacity zero-copy buffer.
//
// A Buffer is a persisted region of exactly Capacity bytes. Every accessor is
// bounded: Write, WriteAt, ReadAt and ReadString touch only the bytes named by
// their offset and length, and charge only those bytes to the transient
// budget. There is deliberately no method that returns or copies the whole
// buffer; once the capacity exceeds the transient heap such a method could
// only fail.
package fixed

import (
	"fmt"

	"github.com/joshuapare/slabkit/internal/buf"
	"github.com/joshuapare/slabkit/internal/format"
	"github.com/joshuapare/slabkit/internal/text"
	"github.com/joshuapare/slabkit/pkg/types"
	"github.com/joshuapare/slabkit/slab"
	"github.com/joshuapare/slabkit/slab/budget"
	"github.com/joshuapare/slabkit/slab/dirty"
	"github.com/joshuapare/slabkit/slab/realloc"
)

// Options wire a Buffer to the invocation it runs in. Every field is optional.
type Options struct {
	Tracker dirty.DirtyTracker // records written ranges
	Meter   *budget.Meter      // transient budget of the current invocation
	Limits  realloc.Limits     // allocation ceilings for Create and Grow
}

// Buffer is a fixed-capacity byte region mutated in place.
//
// NOT thread-safe; the caller holds exclusive access for one invocation.
type Buffer struct {
	r    *slab.Region
	opts Options
}

// Create allocates a new zero-filled buffer of capacity bytes at path.
func Create(path string, capacity int64, owner types.Key, tag string, opts Options) (*Buffer, error) {
	if err := opts.Limits.CheckAllocation(capacity); err != nil {
		return nil, err
	}
	r, err := slab.Create(path, format.KindFixed, capacity, owner, tag)
	if err != nil {
		return nil, err
	}
	return &Buffer{r: r, opts: opts}, nil
}

// New wraps an opened region. The region must hold a fixed buffer.
func New(r *slab.Region, opts Options) (*Buffer, error) {
	if k := r.Kind(); k != format.KindFixed {
		return nil, fmt.Errorf("%w: want %s, have %s", types.ErrKindMismatch, format.KindFixed, k)
	}
	return &Buffer{r: r, opts: opts}, nil
}

// Region returns the backing region.
func (b *Buffer) Region() *slab.Region { return b.r }

// Capacity returns the number of persisted bytes.
func (b *Buffer) Capacity() int64 { return b.r.DataSize() }

// Write copies p into the buffer at offset. It fails with types.ErrOutOfBounds,
// leaving every byte unchanged, unless offset+len(p) <= Capacity.
func (b *Buffer) Write(offset int64, p []byte) error {
	dst, ok := buf.Slice64(b.r.Data(), offset, len(p))
	if !ok {
		return fmt.Errorf("%w: write of %d bytes at offset %d, capacity %d",
			types.ErrOutOfBounds, len(p), offset, b.Capacity())
	}
	// The payload itself is the only transient cost.
	if err := b.opts.Meter.Alloc(len(p)); err != nil {
		return err
	}
	if b.opts.Tracker != nil && len(p) > 0 {
		b.opts.Tracker.Add(format.HeaderSize+int(offset), len(p))
	}
	copy(dst, p)
	return nil
}

// WriteAt implements io.WriterAt with all-or-nothing semantics.
func (b *Buffer) WriteAt(p []byte, off int64) (int, error) {
	if err := b.Write(off, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ReadAt implements io.ReaderAt. The bound check mirrors Write: a range that
// does not fit entirely is rejected and nothing is copied.
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	src, ok := buf.Slice64(b.r.Data(), off, len(p))
	if !ok {
		return 0, fmt.Errorf("%w: read of %d bytes at offset %d, capacity %d",
			types.ErrOutOfBounds, len(p), off, b.Capacity())
	}
	return copy(p, src), nil
}

// Read returns a copy of n bytes at offset, charged to the transient heap.
func (b *Buffer) Read(offset int64, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", types.ErrOutOfBounds, n)
	}
	if _, ok := buf.Slice64(b.r.Data(), offset, n); !ok {
		return nil, fmt.Errorf("%w: read of %d bytes at offset %d, capacity %d",
			types.ErrOutOfBounds, n, offset, b.Capacity())
	}
	if err := b.opts.Meter.Alloc(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	_, err := b.ReadAt(out, offset)
	return out, err
}

// ReadString reads n bytes at offset and decodes them as UTF-8.
func (b *Buffer) ReadString(offset int64, n int) (string, error) {
	raw, err := b.Read(offset, n)
	if err != nil {
		return "", err
	}
	return text.Decode(raw)
}

// Grow reallocates the buffer to newCapacity bytes, preserving content and
// zero-filling the new tail.
func (b *Buffer) Grow(newCapacity int64) error {
	return realloc.Grow(b.r, newCapacity, b.opts.Limits, b.opts.Tracker)
}

// Close closes the backing region.
func (b *Buffer) Close() error { return b.r.Close() }

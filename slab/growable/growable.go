// Package growable implements the naive variable-length buffer.
//
// The data region holds a little-endian u32 length followed by the content.
// Appending rebuilds the value: the whole existing content is brought into
// transient memory, the new bytes are added, and the result is written back.
// That is the deserialize-then-mutate strategy, kept so its failure mode is
// reproducible: a buffer becomes too large to touch long before it is too
// large to store. Use package fixed for anything that must scale.
package growable

import (
	"fmt"
	"math"

	"github.com/joshuapare/slabkit/internal/format"
	"github.com/joshuapare/slabkit/internal/text"
	"github.com/joshuapare/slabkit/pkg/types"
	"github.com/joshuapare/slabkit/slab"
	"github.com/joshuapare/slabkit/slab/budget"
	"github.com/joshuapare/slabkit/slab/dirty"
	"github.com/joshuapare/slabkit/slab/realloc"
)

// DefaultCapacity is the persisted size of a new growable region.
const DefaultCapacity = 10 * 1024

// Options wire a Buffer to the invocation it runs in. Every field is optional.
type Options struct {
	Tracker dirty.DirtyTracker
	Meter   *budget.Meter
	Limits  realloc.Limits
}

// Buffer is a length-prefixed, variable-length byte buffer.
type Buffer struct {
	r    *slab.Region
	opts Options
}

// Create allocates an empty buffer whose region is capacity bytes, length
// prefix included.
func Create(path string, capacity int64, owner types.Key, tag string, opts Options) (*Buffer, error) {
	if capacity < format.LengthPrefixSize {
		return nil, fmt.Errorf("%w: capacity %d cannot hold the length prefix", types.ErrInvalidSize, capacity)
	}
	if err := opts.Limits.CheckAllocation(capacity); err != nil {
		return nil, err
	}
	r, err := slab.Create(path, format.KindGrowable, capacity, owner, tag)
	if err != nil {
		return nil, err
	}
	return &Buffer{r: r, opts: opts}, nil
}

// New wraps an opened region. The region must hold a growable buffer with a
// length prefix that fits the region.
func New(r *slab.Region, opts Options) (*Buffer, error) {
	if k := r.Kind(); k != format.KindGrowable {
		return nil, fmt.Errorf("%w: want %s, have %s", types.ErrKindMismatch, format.KindGrowable, k)
	}
	b := &Buffer{r: r, opts: opts}
	if r.DataSize() < format.LengthPrefixSize {
		return nil, fmt.Errorf("%w: growable region of %d bytes", types.ErrCorrupt, r.DataSize())
	}
	if int64(b.Len()) > b.Ceiling() {
		return nil, fmt.Errorf("%w: content length %d exceeds ceiling %d", types.ErrCorrupt, b.Len(), b.Ceiling())
	}
	return b, nil
}

// Region returns the backing region.
func (b *Buffer) Region() *slab.Region { return b.r }

// Len returns the content length from the prefix. It reads four bytes.
func (b *Buffer) Len() int {
	return int(format.ReadU32(b.r.Data(), 0))
}

// Ceiling returns the largest content length the region can persist.
func (b *Buffer) Ceiling() int64 {
	return b.r.DataSize() - format.LengthPrefixSize
}

// Append rebuilds the content as content ++ p. The rebuilt value is charged to
// the transient heap before anything is read, so exceeding the budget fails
// with types.ErrTransientMemoryExceeded even when the region could store the
// result. A result beyond the persisted ceiling fails with
// types.ErrAllocationTooLarge. Either way the content is unchanged.
func (b *Buffer) Append(p []byte) error {
	cur := b.Len()
	total := cur + len(p)

	if err := b.opts.Meter.Alloc(total); err != nil {
		return err
	}
	content := make([]byte, 0, total)
	content = append(content, b.r.Data()[format.LengthPrefixSize:format.LengthPrefixSize+cur]...)
	content = append(content, p...)

	if int64(total) > b.Ceiling() || int64(total) > math.MaxUint32 {
		return fmt.Errorf("%w: content of %d bytes exceeds the %d byte region ceiling",
			types.ErrAllocationTooLarge, total, b.Ceiling())
	}
	return b.store(content)
}

// store re-persists a whole value: the length prefix and every content byte.
func (b *Buffer) store(content []byte) error {
	if b.opts.Tracker != nil {
		b.opts.Tracker.Add(format.HeaderSize, format.LengthPrefixSize+len(content))
	}
	data := b.r.Data()
	copy(data[format.LengthPrefixSize:], content)
	format.PutU32(data, 0, uint32(len(content)))
	return nil
}

// Content materializes the whole content in transient memory.
func (b *Buffer) Content() ([]byte, error) {
	n := b.Len()
	if err := b.opts.Meter.Alloc(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b.r.Data()[format.LengthPrefixSize:])
	return out, nil
}

// Text materializes the content and decodes it as UTF-8.
func (b *Buffer) Text() (string, error) {
	raw, err := b.Content()
	if err != nil {
		return "", err
	}
	return text.Decode(raw)
}

// Grow reallocates the region to newCapacity bytes. The content is preserved
// and the ceiling rises by the difference.
func (b *Buffer) Grow(newCapacity int64) error {
	return realloc.Grow(b.r, newCapacity, b.opts.Limits, b.opts.Tracker)
}

// Close closes the backing region.
func (b *Buffer) Close() error { return b.r.Close() }

package program

import (
	"context"

	"github.com/joshuapare/slabkit/pkg/types"
	"github.com/joshuapare/slabkit/slab"
	"github.com/joshuapare/slabkit/slab/fixed"
	"github.com/joshuapare/slabkit/slab/realloc"
)

func (inv *invocation) fixed() (*fixed.Buffer, error) {
	return fixed.New(inv.r, fixed.Options{Tracker: inv.dt, Meter: inv.meter, Limits: inv.limits})
}

// InitFixedBuffer creates owner's zero-copy buffer with capacity zero bytes.
// It fails with types.ErrExists if the instance already exists.
func (p *Program) InitFixedBuffer(ctx context.Context, owner types.Key, capacity int64) error {
	c := call{
		op:    "init_fixed_buffer",
		tag:   TagFixed,
		owner: owner,
		create: func(path string, l realloc.Limits) (*slab.Region, error) {
			b, err := fixed.Create(path, capacity, owner, TagFixed, fixed.Options{Limits: l})
			if err != nil {
				return nil, err
			}
			return b.Region(), nil
		},
	}
	return p.invoke(ctx, c, func(inv *invocation) error {
		_, err := inv.fixed()
		return err
	})
}

// WriteFixed copies data into owner's buffer at offset. Only those bytes are
// read, written and charged to the transient budget.
func (p *Program) WriteFixed(ctx context.Context, owner types.Key, offset int64, data []byte) error {
	return p.invoke(ctx, call{op: "write_fixed", tag: TagFixed, owner: owner}, func(inv *invocation) error {
		b, err := inv.fixed()
		if err != nil {
			return err
		}
		return b.Write(offset, data)
	})
}

// ReadFixed returns a copy of n bytes of owner's buffer at offset.
func (p *Program) ReadFixed(ctx context.Context, owner types.Key, offset int64, n int) ([]byte, error) {
	var out []byte
	err := p.invoke(ctx, call{op: "read_fixed", tag: TagFixed, owner: owner, read: true}, func(inv *invocation) error {
		b, err := inv.fixed()
		if err != nil {
			return err
		}
		out, err = b.Read(offset, n)
		return err
	})
	return out, err
}

// ReadFixedString reads n bytes at offset and decodes them as UTF-8.
func (p *Program) ReadFixedString(ctx context.Context, owner types.Key, offset int64, n int) (string, error) {
	var out string
	err := p.invoke(ctx, call{op: "read_fixed", tag: TagFixed, owner: owner, read: true}, func(inv *invocation) error {
		b, err := inv.fixed()
		if err != nil {
			return err
		}
		out, err = b.ReadString(offset, n)
		return err
	})
	return out, err
}

// GrowFixed reallocates owner's buffer to newCapacity bytes.
func (p *Program) GrowFixed(ctx context.Context, owner types.Key, newCapacity int64) error {
	return p.invoke(ctx, call{op: "grow_fixed", tag: TagFixed, owner: owner}, func(inv *invocation) error {
		b, err := inv.fixed()
		if err != nil {
			return err
		}
		return b.Grow(newCapacity)
	})
}

package program

import (
	"context"

	"github.com/joshuapare/slabkit/pkg/types"
	"github.com/joshuapare/slabkit/slab"
	"github.com/joshuapare/slabkit/slab/growable"
	"github.com/joshuapare/slabkit/slab/realloc"
)

func (inv *invocation) growable() (*growable.Buffer, error) {
	return growable.New(inv.r, growable.Options{Tracker: inv.dt, Meter: inv.meter, Limits: inv.limits})
}

// InitGrowableBuffer creates owner's naive buffer with empty content and the
// configured region capacity.
func (p *Program) InitGrowableBuffer(ctx context.Context, owner types.Key) error {
	capacity := p.cfg.GrowableCapacity
	c := call{
		op:    "init_growable_buffer",
		tag:   TagGrowable,
		owner: owner,
		create: func(path string, l realloc.Limits) (*slab.Region, error) {
			b, err := growable.Create(path, capacity, owner, TagGrowable, growable.Options{Limits: l})
			if err != nil {
				return nil, err
			}
			return b.Region(), nil
		},
	}
	return p.invoke(ctx, c, func(inv *invocation) error {
		_, err := inv.growable()
		return err
	})
}

// AppendGrowable appends data to owner's naive buffer. The whole resulting
// content is materialized, so the transient heap bounds how large the content
// can get.
func (p *Program) AppendGrowable(ctx context.Context, owner types.Key, data []byte) error {
	return p.invoke(ctx, call{op: "append_growable", tag: TagGrowable, owner: owner}, func(inv *invocation) error {
		b, err := inv.growable()
		if err != nil {
			return err
		}
		return b.Append(data)
	})
}

// GrowGrowable reallocates the region of owner's naive buffer.
func (p *Program) GrowGrowable(ctx context.Context, owner types.Key, newCapacity int64) error {
	return p.invoke(ctx, call{op: "grow_growable", tag: TagGrowable, owner: owner}, func(inv *invocation) error {
		b, err := inv.growable()
		if err != nil {
			return err
		}
		return b.Grow(newCapacity)
	})
}

// GrowableText returns the content of owner's naive buffer as text.
func (p *Program) GrowableText(ctx context.Context, owner types.Key) (string, error) {
	var out string
	err := p.invoke(ctx, call{op: "growable_text", tag: TagGrowable, owner: owner, read: true}, func(inv *invocation) error {
		b, err := inv.growable()
		if err != nil {
			return err
		}
		out, err = b.Text()
		return err
	})
	return out, err
}

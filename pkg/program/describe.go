package program

import (
	"context"
	"errors"
	"time"

	"github.com/joshuapare/slabkit/internal/catalog"
	"github.com/joshuapare/slabkit/pkg/types"
)

// Info describes one instance as read from its header and the catalog.
type Info struct {
	Address       types.Key `json:"address"`
	Path          string    `json:"path"`
	Owner         types.Key `json:"owner"`
	Tag           string    `json:"tag"`
	Kind          string    `json:"kind"`
	Capacity      int64     `json:"capacity"`
	Sequence      uint32    `json:"sequence"`
	Clean         bool      `json:"clean"`
	ChecksumValid bool      `json:"checksum_valid"`
	LastWrite     time.Time `json:"last_write"`

	// Cataloged is false when the instance file exists without a catalog entry.
	Cataloged   bool   `json:"cataloged"`
	Invocations uint64 `json:"invocations,omitempty"`
}

// Describe reads the header of owner's instance under tag.
func (p *Program) Describe(ctx context.Context, tag string, owner types.Key) (Info, error) {
	var info Info
	err := p.invoke(ctx, call{op: "describe", tag: tag, owner: owner, read: true}, func(inv *invocation) error {
		h := inv.r.Header()
		info = Info{
			Address:       p.Address(tag, owner),
			Path:          inv.r.Path(),
			Owner:         h.Owner(),
			Tag:           h.Tag(),
			Kind:          h.Kind().String(),
			Capacity:      h.DataSize(),
			Sequence:      h.Sequence1(),
			Clean:         h.IsClean(),
			ChecksumValid: h.ChecksumValid(),
			LastWrite:     h.TimeStamp(),
		}
		e, err := p.catalog.Get(info.Address)
		switch {
		case err == nil:
			info.Cataloged = true
			info.Invocations = e.Invocations
		case !errors.Is(err, types.ErrNotFound):
			return err
		}
		return nil
	})
	return info, err
}

// List returns the cataloged instances in address order. A non-empty tag
// filters by namespace.
func (p *Program) List(ctx context.Context, tag string) ([]catalog.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.catalog.List(tag)
}

package program

import (
	"context"

	"github.com/joshuapare/slabkit/pkg/types"
	"github.com/joshuapare/slabkit/slab"
	"github.com/joshuapare/slabkit/slab/realloc"
	"github.com/joshuapare/slabkit/slab/records"
)

func (inv *invocation) table() (*records.Table, error) {
	return records.New(inv.r, records.Options{Tracker: inv.dt, Meter: inv.meter, Limits: inv.limits})
}

func (p *Program) createTable(op string, owner types.Key) call {
	length := p.cfg.TableLength
	return call{
		op:    op,
		tag:   TagTable,
		owner: owner,
		create: func(path string, l realloc.Limits) (*slab.Region, error) {
			t, err := records.Create(path, length, owner, TagTable, records.Options{Limits: l})
			if err != nil {
				return nil, err
			}
			return t.Region(), nil
		},
	}
}

// InitRecordTable creates owner's record table and empties every slot by
// writing each one directly into storage.
func (p *Program) InitRecordTable(ctx context.Context, owner types.Key) error {
	return p.invoke(ctx, p.createTable("init_record_table", owner), func(inv *invocation) error {
		t, err := inv.table()
		if err != nil {
			return err
		}
		return t.Init()
	})
}

// InitRecordTableTransient creates owner's record table by building the
// whole table in transient memory first. With the reference budget and table
// length it fails with types.ErrTransientMemoryExceeded, and no instance is
// left behind.
func (p *Program) InitRecordTableTransient(ctx context.Context, owner types.Key) error {
	return p.invoke(ctx, p.createTable("init_record_table_transient", owner), func(inv *invocation) error {
		t, err := inv.table()
		if err != nil {
			return err
		}
		return t.InitTransient()
	})
}

// SetRecordSlot stores rec at index of owner's table, or empties the slot
// when rec is nil.
func (p *Program) SetRecordSlot(ctx context.Context, owner types.Key, index int, rec *records.Record) error {
	return p.invoke(ctx, call{op: "set_record_slot", tag: TagTable, owner: owner}, func(inv *invocation) error {
		t, err := inv.table()
		if err != nil {
			return err
		}
		return t.SetSlot(index, rec)
	})
}

// RecordSlot returns the record at index of owner's table, or nil when the
// slot is empty.
func (p *Program) RecordSlot(ctx context.Context, owner types.Key, index int) (*records.Record, error) {
	var out *records.Record
	err := p.invoke(ctx, call{op: "record_slot", tag: TagTable, owner: owner, read: true}, func(inv *invocation) error {
		t, err := inv.table()
		if err != nil {
			return err
		}
		out, err = t.Slot(index)
		return err
	})
	return out, err
}

package program

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joshuapare/slabkit/internal/catalog"
	"github.com/joshuapare/slabkit/internal/logger"
	"github.com/joshuapare/slabkit/pkg/config"
	"github.com/joshuapare/slabkit/pkg/types"
	"github.com/joshuapare/slabkit/slab"
	"github.com/joshuapare/slabkit/slab/budget"
	"github.com/joshuapare/slabkit/slab/dirty"
	"github.com/joshuapare/slabkit/slab/realloc"
	"github.com/joshuapare/slabkit/slab/tx"
)

// Namespace tags. Each tag owns one instance per owner.
const (
	TagFixed    = "data_holder_zero_copy_v0"
	TagGrowable = "data_holder_no_zero_copy_v0"
	TagTable    = "hit_stack_size"
)

// slabExt is the file extension of instance files in the data directory.
const slabExt = ".slab"

// Report describes one finished invocation.
type Report struct {
	Op        string
	Address   types.Key
	Sequence  uint32 // header sequence after the invocation; unchanged for reads
	PeakStack int
	HeapUsed  int
	Err       error
}

// Program runs invocations against the instances of one program identity.
// It is safe for concurrent use.
type Program struct {
	cfg     config.Config
	catalog *catalog.Catalog
	locks   keyedMutex
	observe func(Report)
}

// Open validates cfg, creates the data directory and opens the catalog.
func Open(cfg config.Config) (*Program, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	cat, err := catalog.Open(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	return &Program{cfg: cfg, catalog: cat}, nil
}

// Close releases the catalog. Invocations must not be running.
func (p *Program) Close() error {
	return p.catalog.Close()
}

// Config returns the configuration the program was opened with.
func (p *Program) Config() config.Config { return p.cfg }

// Observe registers fn to receive a Report after every invocation. Call it
// before issuing invocations.
func (p *Program) Observe(fn func(Report)) { p.observe = fn }

// Address returns the derived address of owner's instance under tag.
func (p *Program) Address(tag string, owner types.Key) types.Key {
	return types.DeriveAddress(p.cfg.ProgramID, tag, owner)
}

// Path returns the slab file that backs owner's instance under tag.
func (p *Program) Path(tag string, owner types.Key) string {
	return p.path(p.Address(tag, owner))
}

func (p *Program) path(addr types.Key) string {
	return filepath.Join(p.cfg.DataDir, addr.String()+slabExt)
}

// call names one invocation.
type call struct {
	op    string
	tag   string
	owner types.Key

	// create makes the instance instead of opening it. A failed invocation
	// removes the file again.
	create func(path string, limits realloc.Limits) (*slab.Region, error)

	// read skips the header transaction; nothing is written.
	read bool
}

// invocation is the state one operation runs with.
type invocation struct {
	r      *slab.Region
	dt     *dirty.Tracker
	meter  *budget.Meter
	limits realloc.Limits
}

// invoke runs fn as one invocation of c.
func (p *Program) invoke(ctx context.Context, c call, fn func(*invocation) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := p.Address(c.tag, c.owner)
	unlock := p.locks.lock(addr)
	defer unlock()

	inv := &invocation{
		meter:  budget.NewMeter(p.cfg.Budget()),
		limits: p.cfg.Allocation(),
	}
	rep := Report{Op: c.op, Address: addr}
	defer func() {
		rep.PeakStack = inv.meter.PeakStack()
		rep.HeapUsed = inv.meter.HeapUsed()
		rep.Err = err
		p.report(rep)
	}()

	path := p.path(addr)
	if c.create != nil {
		inv.r, err = c.create(path, inv.limits)
	} else {
		inv.r, err = p.open(path, c.tag, c.owner)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", c.op, err)
	}
	defer func() {
		if cerr := inv.r.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%s: close: %w", c.op, cerr)
		}
		if err != nil && c.create != nil {
			_ = os.Remove(path)
		}
	}()

	if c.read {
		rep.Sequence = inv.r.Header().Sequence1()
		if err := fn(inv); err != nil {
			return fmt.Errorf("%s: %w", c.op, err)
		}
		return nil
	}

	inv.dt = dirty.NewTracker(inv.r)
	m := tx.NewManager(inv.r, inv.dt, p.cfg.Flush())
	if err := m.Begin(ctx); err != nil {
		return fmt.Errorf("%s: begin: %w", c.op, err)
	}
	if err := fn(inv); err != nil {
		rollback(m, c.op, path)
		return fmt.Errorf("%s: %w", c.op, err)
	}
	// The mapping is already mutated: cancellation can no longer split the
	// data flush from the header flush.
	if err := m.Commit(context.WithoutCancel(ctx)); err != nil {
		rollback(m, c.op, path)
		return fmt.Errorf("%s: commit: %w", c.op, err)
	}
	rep.Sequence = m.CurrentSequence()

	p.record(addr, c, inv.r)
	return nil
}

// rollback restores the pre-invocation bytes. A failed shrink leaves slack
// past the recorded data size, which the next open cuts off.
func rollback(m *tx.Manager, op, path string) {
	if err := m.Rollback(); err != nil {
		logger.Error("rollback failed", "op", op, "path", path, "error", err)
	}
}

// open maps an existing instance and checks that it belongs to owner and tag.
func (p *Program) open(path, tag string, owner types.Key) (*slab.Region, error) {
	r, err := slab.Open(path)
	if err != nil {
		return nil, err
	}
	h := r.Header()
	if h.Owner() != owner || h.Tag() != tag {
		_ = r.Close()
		return nil, fmt.Errorf("%w: %s belongs to %s/%s", types.ErrCorrupt, path, h.Owner(), h.Tag())
	}
	if !h.IsClean() {
		logger.Warn("instance has an interrupted invocation",
			"path", path, "primary", h.Sequence1(), "secondary", h.Sequence2())
	}
	return r, nil
}

// record updates the catalog after a committed invocation. The slab file is
// already durable, so catalog failures are logged and not returned.
func (p *Program) record(addr types.Key, c call, r *slab.Region) {
	e := catalog.Entry{
		Address:  addr,
		Owner:    c.owner,
		Tag:      c.tag,
		Kind:     r.Kind().String(),
		Capacity: r.DataSize(),
	}
	var err error
	if c.create != nil {
		e.Invocations = 1
		if err = p.catalog.Delete(addr); err == nil {
			err = p.catalog.Put(e)
		}
	} else {
		err = p.catalog.Touch(addr, r.DataSize(), e)
	}
	if err != nil {
		logger.Warn("catalog update failed", "op", c.op, "address", addr.String(), "error", err)
	}
}

func (p *Program) report(rep Report) {
	if rep.Err != nil {
		level := logger.Warn
		if errors.Is(rep.Err, context.Canceled) {
			level = logger.Debug
		}
		level("invocation failed",
			"op", rep.Op, "address", rep.Address.String(), "peak_stack", rep.PeakStack,
			"heap", rep.HeapUsed, "error", rep.Err)
	} else {
		logger.Debug("invocation committed",
			"op", rep.Op, "address", rep.Address.String(), "seq", rep.Sequence,
			"peak_stack", rep.PeakStack, "heap", rep.HeapUsed)
	}
	if p.observe != nil {
		p.observe(rep)
	}
}

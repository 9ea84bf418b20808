// Package tx brackets one invocation against a slab so its effects are
// all-or-nothing at the persisted level.
//
// Protocol:
//  1. Begin() - increment PrimarySeq, mark the header dirty
//  2. [apply one operation - ranges recorded by the dirty tracker]
//  3. Commit() - flush data ranges, set SecondarySeq=PrimarySeq, flush header
//     or Rollback() - copy every recorded pre-image back, undo any grow
//
// Crash recovery: a header with PrimarySeq != SecondarySeq was interrupted
// between Begin and Commit.
package tx

import (
	"context"
	"fmt"
	"time"

	"github.com/joshuapare/slabkit/internal/format"
	"github.com/joshuapare/slabkit/slab"
	"github.com/joshuapare/slabkit/slab/dirty"
)

// Manager owns the header protocol fields (sequences, timestamp, checksum).
// Operations like Append only touch structural fields.
//
// The manager is NOT thread-safe. Only one goroutine should use it at a time.
type Manager struct {
	r       *slab.Region
	dt      dirty.FlushableTracker
	mode    dirty.FlushMode
	seq     uint32 // sequence number of the active invocation
	prevSeq uint32 // PrimarySeq before Begin, restored by Rollback

	prevDataSize int64 // data size before Begin; Rollback shrinks back to it
	inTx    bool
}

// NewManager creates a transaction manager for the given region.
func NewManager(r *slab.Region, dt dirty.FlushableTracker, mode dirty.FlushMode) *Manager {
	return &Manager{r: r, dt: dt, mode: mode}
}

// Begin starts an invocation by bumping PrimarySeq and the timestamp.
// Calling Begin inside an active invocation is a no-op.
func (m *Manager) Begin(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.inTx {
		return nil
	}

	data := m.r.Bytes()
	if len(data) < format.HeaderSize {
		return fmt.Errorf("tx: region too small: %d bytes", len(data))
	}

	m.dt.Add(0, format.HeaderSize)
	m.prevSeq = format.ReadU32(data, format.PrimarySeqOffset)
	m.prevDataSize = int64(format.ReadU64(data, format.DataSizeOffset))
	m.seq = m.prevSeq + 1
	format.PutU32(data, format.PrimarySeqOffset, m.seq)
	format.PutU64(data, format.TimeStampOffset, uint64(time.Now().UnixNano()))

	m.inTx = true
	return nil
}

// Commit finalizes the invocation using the ordered flush protocol:
//
//  1. Flush all dirty data pages
//  2. Set SecondarySeq = PrimarySeq
//  3. Update the timestamp and recompute the header checksum
//  4. Flush the header page, then sync per FlushMode
//
// Commit without an active invocation is a no-op.
func (m *Manager) Commit(ctx context.Context) error {
	if !m.inTx {
		return nil
	}

	if err := m.dt.FlushDataOnly(ctx); err != nil {
		return fmt.Errorf("flush data pages: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Re-read the mapping: a grow during the invocation remapped it.
	m.dt.Add(0, format.HeaderSize)
	data := m.r.Bytes()
	format.PutU32(data, format.SecondarySeqOffset, m.seq)
	format.PutU64(data, format.TimeStampOffset, uint64(time.Now().UnixNano()))
	format.PutU32(data, format.CheckSumOffset, format.Checksum(data))

	if err := m.dt.FlushHeaderAndMeta(ctx, m.mode); err != nil {
		return fmt.Errorf("flush header: %w", err)
	}

	m.dt.Reset()
	m.inTx = false
	return nil
}

// Rollback aborts the invocation. Every range recorded since Begin gets its
// pre-image copied back, header included, and a grow is cut back to the data
// size Begin saw. It is safe after a failed Commit: flushed pages are
// overwritten in the shared mapping.
func (m *Manager) Rollback() error {
	if !m.inTx {
		return nil
	}
	m.dt.Undo()
	m.seq = m.prevSeq
	m.inTx = false

	if m.r.Size() > format.HeaderSize+m.prevDataSize {
		if err := m.r.Shrink(m.prevDataSize); err != nil {
			return fmt.Errorf("tx: undo grow: %w", err)
		}
	}
	return nil
}

// InTransaction reports whether an invocation is active.
func (m *Manager) InTransaction() bool { return m.inTx }

// CurrentSequence returns the sequence number of the current or last invocation.
func (m *Manager) CurrentSequence() uint32 { return m.seq }

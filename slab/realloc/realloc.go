// Package realloc changes the persisted capacity of a slab's data region.
//
// Growth only: bytes below the old capacity are preserved, bytes above it
// read as zero, and a failed grow leaves the region at its prior capacity.
package realloc

import (
	"fmt"

	"github.com/joshuapare/slabkit/internal/format"
	"github.com/joshuapare/slabkit/pkg/types"
	"github.com/joshuapare/slabkit/slab"
	"github.com/joshuapare/slabkit/slab/dirty"
)

const (
	// DefaultMaxAllocation is the host ceiling on one region's data size.
	DefaultMaxAllocation = 10 * 1024 * 1024

	// DefaultMaxGrowth is the host ceiling on growth within one invocation.
	DefaultMaxGrowth = 10 * 1024
)

// Limits are the host allocation ceilings. A zero field means unlimited.
type Limits struct {
	MaxAllocation int64
	MaxGrowth     int64
}

// DefaultLimits returns the reference host ceilings.
func DefaultLimits() Limits {
	return Limits{MaxAllocation: DefaultMaxAllocation, MaxGrowth: DefaultMaxGrowth}
}

// CheckAllocation validates a single allocation of size bytes.
func (l Limits) CheckAllocation(size int64) error {
	if size < 0 {
		return fmt.Errorf("%w: negative size %d", types.ErrAllocationTooLarge, size)
	}
	if l.MaxAllocation > 0 && size > l.MaxAllocation {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte ceiling",
			types.ErrAllocationTooLarge, size, l.MaxAllocation)
	}
	return nil
}

// Grow reallocates r's data region to newCapacity bytes. Equal capacity is a
// no-op; smaller capacity fails with types.ErrInvalidSize.
//
// dt may be nil. When set, the header page is recorded dirty because the data
// size field changed. The new tail needs no flush: the file extension already
// reads as zero.
func Grow(r *slab.Region, newCapacity int64, l Limits, dt dirty.DirtyTracker) error {
	if r == nil || r.Header() == nil {
		return types.ErrClosed
	}
	old := r.DataSize()
	if newCapacity < old {
		return fmt.Errorf("%w: cannot shrink from %d to %d bytes", types.ErrInvalidSize, old, newCapacity)
	}
	if newCapacity == old {
		return nil
	}
	if err := l.CheckAllocation(newCapacity); err != nil {
		return err
	}
	if growth := newCapacity - old; l.MaxGrowth > 0 && growth > l.MaxGrowth {
		return fmt.Errorf("%w: growth of %d bytes exceeds the %d byte per-invocation ceiling",
			types.ErrAllocationTooLarge, growth, l.MaxGrowth)
	}

	if dt != nil {
		dt.Add(0, format.HeaderSize)
	}
	if err := r.Append(newCapacity - old); err != nil {
		return fmt.Errorf("realloc: grow to %d bytes: %w", newCapacity, err)
	}
	return nil
}

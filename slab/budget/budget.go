// Package budget models the per-invocation transient memory ceilings of the
// host: a bounded call stack and a bounded, bump-allocated heap.
//
// Persisted regions are not transient memory. What counts is what an access
// pattern must hold at once: the bytes of one write, one slot frame, or (for
// naive strategies) the whole object. Components charge a Meter before they
// touch storage, so exceeding the budget fails the operation before anything
// is written.
package budget

import (
	"fmt"

	"github.com/joshuapare/slabkit/pkg/types"
)

const (
	// DefaultStack is the host's maximum stack frame offset.
	DefaultStack = 4 * 1024

	// DefaultHeap is the host's per-invocation heap.
	DefaultHeap = 32 * 1024
)

// Limits are the static ceilings for one invocation. A zero field means
// unlimited.
type Limits struct {
	Stack int
	Heap  int
}

// DefaultLimits returns the reference host ceilings.
func DefaultLimits() Limits {
	return Limits{Stack: DefaultStack, Heap: DefaultHeap}
}

// Meter tracks transient usage within one invocation. The heap behaves like a
// bump allocator: nothing is freed until the invocation ends. Stack frames
// nest and are released in LIFO order.
//
// A nil *Meter is valid and never fails. A Meter is NOT safe for concurrent use.
type Meter struct {
	limits    Limits
	stack     int
	heap      int
	peakStack int
}

// NewMeter returns a meter for one invocation.
func NewMeter(l Limits) *Meter {
	return &Meter{limits: l}
}

// Limits returns the configured ceilings.
func (m *Meter) Limits() Limits {
	if m == nil {
		return Limits{}
	}
	return m.limits
}

// Alloc charges n bytes to the heap.
func (m *Meter) Alloc(n int) error {
	if m == nil || n <= 0 {
		return nil
	}
	if m.limits.Heap > 0 && n > m.limits.Heap-m.heap {
		return fmt.Errorf("%w: heap request of %d bytes with %d of %d in use",
			types.ErrTransientMemoryExceeded, n, m.heap, m.limits.Heap)
	}
	m.heap += n
	return nil
}

// Frame pushes a stack frame of n bytes. The returned release pops it; it
// must be called exactly once, typically deferred.
func (m *Meter) Frame(n int) (release func(), err error) {
	if m == nil || n <= 0 {
		return func() {}, nil
	}
	if m.limits.Stack > 0 && n > m.limits.Stack-m.stack {
		return nil, fmt.Errorf("%w: stack offset of %d exceeded max offset of %d by %d bytes",
			types.ErrTransientMemoryExceeded, m.stack+n, m.limits.Stack, m.stack+n-m.limits.Stack)
	}
	m.stack += n
	m.peakStack = max(m.peakStack, m.stack)
	released := false
	return func() {
		if released {
			return
		}
		released = true
		m.stack -= n
	}, nil
}

// HeapUsed returns the bytes charged to the heap so far.
func (m *Meter) HeapUsed() int {
	if m == nil {
		return 0
	}
	return m.heap
}

// StackUsed returns the current stack depth in bytes.
func (m *Meter) StackUsed() int {
	if m == nil {
		return 0
	}
	return m.stack
}

// PeakStack returns the deepest stack offset reached.
func (m *Meter) PeakStack() int {
	if m == nil {
		return 0
	}
	return m.peakStack
}

package records

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/slabkit/internal/format"
	"github.com/joshuapare/slabkit/pkg/types"
	"github.com/joshuapare/slabkit/slab"
	"github.com/joshuapare/slabkit/slab/budget"
	"github.com/joshuapare/slabkit/slab/dirty"
)

var testOwner = types.KeyFromSeed("table-owner")

func newTestTable(t *testing.T, length int, opts Options) *Table {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.slab")
	tbl, err := Create(path, length, testOwner, "hit_stack_size", opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tbl.Close() })
	return tbl
}

func TestTable_InitThenSetOneSlot(t *testing.T) {
	meter := budget.NewMeter(budget.DefaultLimits())
	tbl := newTestTable(t, DefaultLength, Options{Meter: meter})

	require.NoError(t, tbl.Init())
	rec := sampleRecord("three")
	require.NoError(t, tbl.SetSlot(3, rec))

	for i := range DefaultLength {
		got, err := tbl.Slot(i)
		require.NoError(t, err)
		if i == 3 {
			assert.Equal(t, rec, got)
			continue
		}
		assert.Nil(t, got, "slot %d should be empty", i)
	}
}

func TestTable_DirectInitStaysWithinOneSlotFrame(t *testing.T) {
	for _, n := range []int{1, 10, 12, 100, 1000} {
		meter := budget.NewMeter(budget.DefaultLimits())
		tbl := newTestTable(t, n, Options{Meter: meter})

		require.NoError(t, tbl.Init(), "n=%d", n)
		assert.Equal(t, SlotSize, meter.PeakStack(), "peak stack independent of n=%d", n)
		assert.Zero(t, meter.StackUsed(), "every frame is released")
	}
}

func TestTable_TransientInitExceedsStack(t *testing.T) {
	limit := budget.DefaultStack
	for _, n := range []int{1, 5, 6, 10, 12, 100} {
		meter := budget.NewMeter(budget.DefaultLimits())
		tbl := newTestTable(t, n, Options{Meter: meter})
		rec := sampleRecord("survivor")
		require.NoError(t, tbl.SetSlot(0, rec))

		err := tbl.InitTransient()
		if 2*n*SlotSize > limit {
			require.ErrorIs(t, err, types.ErrTransientMemoryExceeded, "n=%d", n)
			got, gerr := tbl.Slot(0)
			require.NoError(t, gerr)
			assert.Equal(t, rec, got, "n=%d: failed init writes nothing", n)
		} else {
			require.NoError(t, err, "n=%d", n)
			got, gerr := tbl.Slot(0)
			require.NoError(t, gerr)
			assert.Nil(t, got)
		}
		if n*SlotSize > limit {
			require.Error(t, err, "whole-table construction above the budget must fail (n=%d)", n)
		}
	}
}

func TestTable_ReferenceTableOverflowsOnlyWhenBuiltTransiently(t *testing.T) {
	limits := budget.DefaultLimits()

	direct := newTestTable(t, DefaultLength, Options{Meter: budget.NewMeter(limits)})
	require.NoError(t, direct.Init())

	naive := newTestTable(t, DefaultLength, Options{Meter: budget.NewMeter(limits)})
	err := naive.InitTransient()
	require.ErrorIs(t, err, types.ErrTransientMemoryExceeded)
	assert.Contains(t, err.Error(), "exceeded max offset of 4096")
}

func TestTable_SetSlotBounds(t *testing.T) {
	tbl := newTestTable(t, 4, Options{})
	for _, idx := range []int{-1, 4, 100} {
		require.ErrorIs(t, tbl.SetSlot(idx, sampleRecord("x")), types.ErrOutOfBounds)
		_, err := tbl.Slot(idx)
		require.ErrorIs(t, err, types.ErrOutOfBounds)
	}
	assert.Equal(t, make([]byte, 4*SlotSize), tbl.Region().Data())
}

func TestTable_SetSlotTouchesOneSlot(t *testing.T) {
	tbl := newTestTable(t, 4, Options{})
	dt := dirty.NewTracker(tbl.Region())
	tbl.opts.Tracker = dt

	require.NoError(t, tbl.SetSlot(2, sampleRecord("two")))
	data := tbl.Region().Data()
	assert.Equal(t, make([]byte, 2*SlotSize), data[:2*SlotSize])
	assert.Equal(t, make([]byte, SlotSize), data[3*SlotSize:])
	assert.Equal(t, []dirty.Range{{Off: format.HeaderSize + 2*SlotSize, Len: SlotSize}}, dt.DebugRanges())

	require.NoError(t, tbl.SetSlot(2, nil))
	got, err := tbl.Slot(2)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTable_CorruptTag(t *testing.T) {
	tbl := newTestTable(t, 2, Options{})
	tbl.Region().Data()[SlotSize] = 0x42
	_, err := tbl.Slot(1)
	require.ErrorIs(t, err, types.ErrCorrupt)
}

func TestTable_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.slab")
	tbl, err := Create(path, 3, testOwner, "t", Options{})
	require.NoError(t, err)
	require.NoError(t, tbl.Init())
	require.NoError(t, tbl.SetSlot(1, sampleRecord("kept")))
	require.NoError(t, tbl.Close())

	r, err := slab.Open(path)
	require.NoError(t, err)
	again, err := New(r, Options{})
	require.NoError(t, err)
	defer again.Close()

	assert.Equal(t, 3, again.Len())
	got, err := again.Slot(1)
	require.NoError(t, err)
	assert.Equal(t, sampleRecord("kept"), got)
}

func TestCreate_Rejects(t *testing.T) {
	dir := t.TempDir()
	_, err := Create(filepath.Join(dir, "zero.slab"), 0, testOwner, "t", Options{})
	require.ErrorIs(t, err, types.ErrInvalidSize)

	r, err := slab.Create(filepath.Join(dir, "fixed.slab"), format.KindFixed, SlotSize, testOwner, "t")
	require.NoError(t, err)
	defer r.Close()
	_, err = New(r, Options{})
	require.ErrorIs(t, err, types.ErrKindMismatch)

	odd, err := slab.Create(filepath.Join(dir, "odd.slab"), format.KindTable, SlotSize+1, testOwner, "t")
	require.NoError(t, err)
	defer odd.Close()
	_, err = New(odd, Options{})
	require.ErrorIs(t, err, types.ErrCorrupt)

	// A header claiming more slots than the mapping holds.
	short, err := slab.Create(filepath.Join(dir, "short.slab"), format.KindTable, 2*SlotSize, testOwner, "t")
	require.NoError(t, err)
	defer short.Close()
	format.PutU64(short.Header().Raw(), format.DataSizeOffset, 4*SlotSize)
	_, err = New(short, Options{})
	require.ErrorIs(t, err, types.ErrCorrupt)
	assert.Contains(t, err.Error(), "bounds")
}

package growable

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/slabkit/internal/format"
	"github.com/joshuapare/slabkit/pkg/types"
	"github.com/joshuapare/slabkit/slab"
	"github.com/joshuapare/slabkit/slab/budget"
	"github.com/joshuapare/slabkit/slab/dirty"
	"github.com/joshuapare/slabkit/slab/realloc"
)

var testOwner = types.KeyFromSeed("growable-owner")

func newTestBuffer(t *testing.T, capacity int64, opts Options) *Buffer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "growable.slab")
	b, err := Create(path, capacity, testOwner, "data_holder_no_zero_copy_v0", opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func content(t *testing.T, b *Buffer) []byte {
	t.Helper()
	got, err := b.Content()
	require.NoError(t, err)
	return got
}

func TestCreate_Empty(t *testing.T) {
	b := newTestBuffer(t, DefaultCapacity, Options{})
	assert.Zero(t, b.Len())
	assert.Equal(t, int64(DefaultCapacity-format.LengthPrefixSize), b.Ceiling())
	assert.Empty(t, content(t, b))
}

func TestCreate_TooSmall(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "x.slab"), 3, testOwner, "t", Options{})
	require.ErrorIs(t, err, types.ErrInvalidSize)
}

func TestAppend_Concatenates(t *testing.T) {
	b := newTestBuffer(t, 256, Options{})
	require.NoError(t, b.Append([]byte("hello")))
	require.NoError(t, b.Append([]byte(", ")))
	require.NoError(t, b.Append([]byte("world")))

	assert.Equal(t, 12, b.Len())
	assert.Equal(t, "hello, world", string(content(t, b)))
}

func TestAppend_Associative(t *testing.T) {
	pairs := [][2]string{
		{"", ""},
		{"a", ""},
		{"", "b"},
		{"abc", "defgh"},
		{string(bytes.Repeat([]byte{'x'}, 1000)), "y"},
	}
	for _, p := range pairs {
		left := newTestBuffer(t, 4096, Options{})
		require.NoError(t, left.Append([]byte("seed-")))
		require.NoError(t, left.Append([]byte(p[0])))
		require.NoError(t, left.Append([]byte(p[1])))

		right := newTestBuffer(t, 4096, Options{})
		require.NoError(t, right.Append([]byte("seed-")))
		require.NoError(t, right.Append([]byte(p[0]+p[1])))

		assert.Equal(t, content(t, right), content(t, left))
	}
}

func TestAppend_TransientLimitBeforePersistedCeiling(t *testing.T) {
	// Same persisted ceiling, different heap: the naive strategy fails as soon
	// as content plus payload outgrows the heap.
	const heap = 1024
	meterFor := func() *budget.Meter { return budget.NewMeter(budget.Limits{Heap: heap}) }

	b := newTestBuffer(t, 8*1024, Options{})
	chunk := bytes.Repeat([]byte{'c'}, 300)
	appended := 0
	for {
		b.opts.Meter = meterFor()
		err := b.Append(chunk)
		if err != nil {
			require.ErrorIs(t, err, types.ErrTransientMemoryExceeded)
			break
		}
		appended++
	}

	assert.Equal(t, 3, appended, "900 bytes fit a 1024 byte heap, 1200 do not")
	assert.Equal(t, 900, b.Len(), "failed append leaves content unchanged")
	assert.Less(t, int64(b.Len()+len(chunk)), b.Ceiling(), "persisted ceiling was never reached")
}

func TestAppend_PersistedCeiling(t *testing.T) {
	b := newTestBuffer(t, 16, Options{})
	require.NoError(t, b.Append([]byte("0123456789")))

	err := b.Append([]byte("abc"))
	require.ErrorIs(t, err, types.ErrAllocationTooLarge)
	assert.Equal(t, "0123456789", string(content(t, b)))

	require.NoError(t, b.Append([]byte("ab")))
	assert.Equal(t, int64(b.Len()), b.Ceiling())
}

func TestGrow_RaisesCeiling(t *testing.T) {
	b := newTestBuffer(t, 16, Options{Limits: realloc.DefaultLimits()})
	require.NoError(t, b.Append([]byte("0123456789")))

	require.NoError(t, b.Grow(64))
	assert.Equal(t, int64(60), b.Ceiling())
	require.NoError(t, b.Append([]byte("abcdef")))
	assert.Equal(t, "0123456789abcdef", string(content(t, b)))

	require.ErrorIs(t, b.Grow(32), types.ErrInvalidSize)
}

func TestText(t *testing.T) {
	b := newTestBuffer(t, 64, Options{})
	require.NoError(t, b.Append([]byte("plain")))
	s, err := b.Text()
	require.NoError(t, err)
	assert.Equal(t, "plain", s)

	require.NoError(t, b.Append([]byte{0xff}))
	_, err = b.Text()
	require.ErrorIs(t, err, types.ErrUTF8Decode)
}

func TestContent_ChargesWholeValue(t *testing.T) {
	b := newTestBuffer(t, 4096, Options{})
	require.NoError(t, b.Append(bytes.Repeat([]byte{'q'}, 2000)))

	b.opts.Meter = budget.NewMeter(budget.Limits{Heap: 1000})
	_, err := b.Content()
	require.ErrorIs(t, err, types.ErrTransientMemoryExceeded)
}

func TestAppend_MarksWholeValueDirty(t *testing.T) {
	b := newTestBuffer(t, 4096, Options{})
	dt := dirty.NewTracker(b.Region())
	b.opts.Tracker = dt

	require.NoError(t, b.Append([]byte("abc")))
	assert.Equal(t, []dirty.Range{{Off: format.HeaderSize, Len: 7}}, dt.DebugRanges())
}

func TestNew_ValidatesRegion(t *testing.T) {
	dir := t.TempDir()

	r, err := slab.Create(filepath.Join(dir, "fixed.slab"), format.KindFixed, 64, testOwner, "t")
	require.NoError(t, err)
	defer r.Close()
	_, err = New(r, Options{})
	require.ErrorIs(t, err, types.ErrKindMismatch)

	bad, err := slab.Create(filepath.Join(dir, "bad.slab"), format.KindGrowable, 16, testOwner, "t")
	require.NoError(t, err)
	defer bad.Close()
	format.PutU32(bad.Data(), 0, 100)
	_, err = New(bad, Options{})
	require.ErrorIs(t, err, types.ErrCorrupt)
}

package slab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/slabkit/internal/format"
	"github.com/joshuapare/slabkit/pkg/types"
)

var testOwner = types.KeyFromSeed("owner")

func newTestRegion(t *testing.T, kind format.Kind, dataSize int64) *Region {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.slab")
	r, err := Create(path, kind, dataSize, testOwner, "test_tag")
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func TestCreate_HeaderAndZeroData(t *testing.T) {
	r := newTestRegion(t, format.KindFixed, 10*1024)

	assert.Equal(t, int64(format.HeaderSize+10*1024), r.Size())
	assert.Equal(t, int64(10*1024), r.DataSize())
	assert.Len(t, r.Data(), 10*1024)
	assert.True(t, allZero(r.Data()), "data region must be zero-filled")

	h := r.Header()
	assert.Equal(t, format.KindFixed, h.Kind())
	assert.Equal(t, testOwner, h.Owner())
	assert.Equal(t, "test_tag", h.Tag())
	assert.True(t, h.IsClean())
	assert.True(t, h.ChecksumValid())
	assert.False(t, h.TimeStamp().IsZero())
}

func TestCreate_Rejects(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.slab")

	r, err := Create(path, format.KindFixed, 16, testOwner, "x")
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, err = Create(path, format.KindFixed, 16, testOwner, "x")
	require.ErrorIs(t, err, types.ErrExists)

	_, err = Create(filepath.Join(dir, "b.slab"), format.KindUnknown, 16, testOwner, "x")
	require.Error(t, err)

	_, err = Create(filepath.Join(dir, "c.slab"), format.KindFixed, -1, testOwner, "x")
	require.Error(t, err)

	longTag := "0123456789abcdef0123456789abcdef!"
	_, err = Create(filepath.Join(dir, "d.slab"), format.KindFixed, 16, testOwner, longTag)
	require.Error(t, err)
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing.slab"))
	require.ErrorIs(t, err, types.ErrNotFound)

	garbage := filepath.Join(dir, "garbage.slab")
	require.NoError(t, os.WriteFile(garbage, make([]byte, format.HeaderSize+8), 0o644))
	_, err = Open(garbage)
	require.ErrorIs(t, err, types.ErrNotSlab)

	short := filepath.Join(dir, "short.slab")
	require.NoError(t, os.WriteFile(short, []byte("slab"), 0o644))
	_, err = Open(short)
	require.ErrorIs(t, err, types.ErrNotSlab)
}

func TestOpen_PersistsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.slab")
	r, err := Create(path, format.KindFixed, 4096, testOwner, "t")
	require.NoError(t, err)

	copy(r.Data()[100:], "persisted")
	require.NoError(t, r.Close())

	r2, err := Open(path)
	require.NoError(t, err)
	defer r2.Close()
	assert.Equal(t, "persisted", string(r2.Data()[100:109]))
}

func TestAppend_PreservesAndZeroFills(t *testing.T) {
	r := newTestRegion(t, format.KindFixed, 1024)
	for i := range r.Data() {
		r.Data()[i] = byte(i)
	}

	require.NoError(t, r.Append(1024))

	assert.Equal(t, int64(2048), r.DataSize())
	assert.Equal(t, int64(2048), r.Header().DataSize(), "header view is refreshed after remap")
	data := r.Data()
	require.Len(t, data, 2048)
	for i := range 1024 {
		require.Equal(t, byte(i), data[i], "byte %d changed", i)
	}
	assert.True(t, allZero(data[1024:]))
}

func TestAppend_NoopAndClosed(t *testing.T) {
	r := newTestRegion(t, format.KindFixed, 64)
	require.NoError(t, r.Append(0))
	assert.Equal(t, int64(64), r.DataSize())

	require.NoError(t, r.Close())
	require.ErrorIs(t, r.Append(10), types.ErrClosed)
	require.NoError(t, r.Close(), "double close is a no-op")
}

func TestOpen_TruncatesInterruptedGrow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slack.slab")
	r, err := Create(path, format.KindFixed, 512, testOwner, "t")
	require.NoError(t, err)
	require.NoError(t, r.Close())

	// Simulate a crash after the file was extended but before the header
	// recorded the new size.
	require.NoError(t, os.Truncate(path, format.HeaderSize+512+4096))

	r2, err := Open(path)
	require.NoError(t, err)
	defer r2.Close()
	assert.Equal(t, int64(format.HeaderSize+512), r2.Size())
	assert.Len(t, r2.Data(), 512)

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(format.HeaderSize+512), st.Size())
}

func TestOpen_RejectsShortData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cut.slab")
	r, err := Create(path, format.KindFixed, 8192, testOwner, "t")
	require.NoError(t, err)
	require.NoError(t, r.Close())

	require.NoError(t, os.Truncate(path, format.HeaderSize+100))
	_, err = Open(path)
	require.ErrorIs(t, err, types.ErrCorrupt)
}

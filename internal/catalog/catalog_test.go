package catalog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/slabkit/pkg/types"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func entry(seed, tag string) Entry {
	owner := types.KeyFromSeed(seed)
	return Entry{
		Address:  types.DeriveAddress(types.KeyFromSeed("program"), tag, owner),
		Owner:    owner,
		Tag:      tag,
		Kind:     "fixed",
		Capacity: 1024,
	}
}

func TestPutGet(t *testing.T) {
	c := openTestCatalog(t)
	fixed := time.Unix(1700000000, 0)
	c.now = func() time.Time { return fixed }

	e := entry("alice", "data_holder_zero_copy_v0")
	require.NoError(t, c.Put(e))

	got, err := c.Get(e.Address)
	require.NoError(t, err)
	assert.Equal(t, e.Owner, got.Owner)
	assert.Equal(t, int64(1024), got.Capacity)
	assert.Equal(t, fixed, got.CreatedAt())
	assert.Equal(t, fixed, got.UpdatedAt())

	require.ErrorIs(t, c.Put(e), types.ErrExists)

	_, err = c.Get(types.KeyFromSeed("nobody"))
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestTouch(t *testing.T) {
	c := openTestCatalog(t)
	e := entry("bob", "hit_stack_size")
	require.NoError(t, c.Put(e))

	require.NoError(t, c.Touch(e.Address, 2048, Entry{}))
	require.NoError(t, c.Touch(e.Address, 4096, Entry{}))
	got, err := c.Get(e.Address)
	require.NoError(t, err)
	assert.Equal(t, int64(4096), got.Capacity)
	assert.Equal(t, uint64(2), got.Invocations)
	assert.Equal(t, "hit_stack_size", got.Tag)

	lost := entry("carol", "hit_stack_size")
	require.NoError(t, c.Touch(lost.Address, 3600, lost))
	got, err = c.Get(lost.Address)
	require.NoError(t, err)
	assert.Equal(t, lost.Owner, got.Owner)
	assert.NotZero(t, got.Created)
}

func TestListAndDelete(t *testing.T) {
	c := openTestCatalog(t)
	a := entry("alice", "data_holder_zero_copy_v0")
	b := entry("alice", "data_holder_no_zero_copy_v0")
	d := entry("dave", "data_holder_zero_copy_v0")
	for _, e := range []Entry{a, b, d} {
		require.NoError(t, c.Put(e))
	}

	all, err := c.List("")
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Address.String(), all[i].Address.String(), "address order")
	}

	zc, err := c.List("data_holder_zero_copy_v0")
	require.NoError(t, err)
	assert.Len(t, zc, 2)

	require.NoError(t, c.Delete(a.Address))
	require.NoError(t, c.Delete(a.Address))
	all, err = c.List("")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	c, err := Open(path)
	require.NoError(t, err)
	e := entry("erin", "hit_stack_size")
	require.NoError(t, c.Put(e))
	require.NoError(t, c.Close())

	c, err = Open(path)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, path, c.Path())
	_, err = c.Get(e.Address)
	require.NoError(t, err)
}

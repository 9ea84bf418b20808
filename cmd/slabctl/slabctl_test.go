package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/slabkit/pkg/types"
)

func TestFixedCommands(t *testing.T) {
	cfg := testConfig(t, "")

	out, err := runCLI(t, cfg, "init-fixed", "40952", "--owner", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Created fixed buffer")

	_, err = runCLI(t, cfg, "write", "0", "hello", "--owner", "alice")
	require.NoError(t, err)
	_, err = runCLI(t, cfg, "write", "912", "A", "--repeat", "912", "--owner", "alice")
	require.NoError(t, err)

	out, err = runCLI(t, cfg, "read", "0", "5", "--string", "--owner", "alice")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)

	out, err = runCLI(t, cfg, "read", "912", "912", "--json", "--owner", "alice")
	require.NoError(t, err)
	var read struct {
		Offset int64  `json:"offset"`
		Hex    string `json:"hex"`
	}
	decodeJSON(t, out, &read)
	assert.Equal(t, strings.Repeat("41", 912), read.Hex)

	_, err = runCLI(t, cfg, "write", "40950", "hello", "--owner", "alice")
	require.ErrorIs(t, err, types.ErrOutOfBounds)

	_, err = runCLI(t, cfg, "grow", "1024", "--owner", "alice")
	require.ErrorIs(t, err, types.ErrInvalidSize)

	_, err = runCLI(t, cfg, "read", "0", "5", "--owner", "bob")
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestGrowableCommands(t *testing.T) {
	cfg := testConfig(t, "heap_budget = 1024\n")

	_, err := runCLI(t, cfg, "init-growable")
	require.NoError(t, err)
	for range 3 {
		_, err = runCLI(t, cfg, "append", "x", "--repeat", "300")
		require.NoError(t, err)
	}
	_, err = runCLI(t, cfg, "append", "x", "--repeat", "300")
	require.ErrorIs(t, err, types.ErrTransientMemoryExceeded)

	out, err := runCLI(t, cfg, "text", "--json")
	require.NoError(t, err)
	var text struct {
		Length int `json:"length"`
	}
	decodeJSON(t, out, &text)
	assert.Equal(t, 900, text.Length)

	_, err = runCLI(t, cfg, "grow-growable", "20000")
	require.NoError(t, err)
}

func TestTableCommands(t *testing.T) {
	cfg := testConfig(t, "")

	_, err := runCLI(t, cfg, "init-table", "--transient")
	require.ErrorIs(t, err, types.ErrTransientMemoryExceeded)

	out, err := runCLI(t, cfg, "init-table")
	require.NoError(t, err)
	assert.Contains(t, out, "10 slots")

	_, err = runCLI(t, cfg, "set-slot", "3", "--seed", "order-17", "--a", "7")
	require.NoError(t, err)

	out, err = runCLI(t, cfg, "slot", "3", "--json")
	require.NoError(t, err)
	var slot struct {
		Present bool           `json:"present"`
		Keys    []types.Key    `json:"keys"`
		Group   map[string]any `json:"group"`
	}
	decodeJSON(t, out, &slot)
	assert.True(t, slot.Present)
	require.Len(t, slot.Keys, 4)
	assert.Equal(t, types.KeyFromSeed("order-17/1"), slot.Keys[0])

	out, err = runCLI(t, cfg, "slot", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "empty")

	_, err = runCLI(t, cfg, "set-slot", "10")
	require.ErrorIs(t, err, types.ErrOutOfBounds)
}

func TestInfoAndLs(t *testing.T) {
	cfg := testConfig(t, "")
	_, err := runCLI(t, cfg, "init-fixed", "256", "--owner", "carol")
	require.NoError(t, err)
	_, err = runCLI(t, cfg, "init-growable", "--owner", "carol")
	require.NoError(t, err)

	out, err := runCLI(t, cfg, "info", "--tag", "fixed", "--owner", "carol")
	require.NoError(t, err)
	assert.Contains(t, out, "Kind: fixed")
	assert.Contains(t, out, "Capacity: 256 bytes")
	assert.Contains(t, out, "✓ Header checksum")

	out, err = runCLI(t, cfg, "ls", "--json")
	require.NoError(t, err)
	var entries []map[string]any
	decodeJSON(t, out, &entries)
	assert.Len(t, entries, 2)

	out, err = runCLI(t, cfg, "ls", "--tag", "growable")
	require.NoError(t, err)
	assert.Contains(t, out, "growable")
	assert.NotContains(t, out, "fixed")

	_, err = runCLI(t, cfg, "info")
	require.Error(t, err)
	_, err = runCLI(t, cfg, "ls", "--tag", "bogus")
	require.Error(t, err)
}

func TestContrast(t *testing.T) {
	cfg := testConfig(t, "")
	out, err := runCLI(t, cfg, "contrast", "--json")
	require.NoError(t, err)

	var results []contrastResult
	decodeJSON(t, out, &results)
	require.Len(t, results, 4)

	byName := map[string]contrastResult{}
	for _, r := range results {
		byName[r.Workload] = r
	}
	assert.Empty(t, byName["fixed"].Error)
	assert.Empty(t, byName["table"].Error)
	assert.Equal(t, 360, byName["table"].PeakStack)
	assert.Contains(t, byName["table-transient"].Error, "transient memory exceeded")
	assert.Contains(t, byName["growable"].Error, "transient memory exceeded")
	assert.Equal(t, 32768, byName["growable"].PeakHeap)
}

func TestParseOwner(t *testing.T) {
	k := types.KeyFromSeed("x")
	assert.Equal(t, k, parseOwner(k.String()))
	assert.Equal(t, types.KeyFromSeed("alice"), parseOwner("alice"))
}

package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_DisabledDiscards(t *testing.T) {
	require.NoError(t, Init(Options{Enabled: false}))
	assert.False(t, L.Enabled(t.Context(), slog.LevelError))
}

func TestInit_TextWriter(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, Writer: &out, Level: slog.LevelWarn}))
	t.Cleanup(func() { _ = Init(Options{}) })

	Info("hidden")
	Warn("grow rejected", "capacity", 10)
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "grow rejected")
	assert.Contains(t, out.String(), "capacity=10")
}

func TestInit_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "slab.log")
	require.NoError(t, Init(Options{Enabled: true, File: path, Level: slog.LevelDebug}))
	Debug("invoke", "op", "write_fixed")
	require.NoError(t, Init(Options{}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(raw), &entry))
	assert.Equal(t, "invoke", entry["msg"])
	assert.Equal(t, "write_fixed", entry["op"])
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	require.Error(t, err)
}

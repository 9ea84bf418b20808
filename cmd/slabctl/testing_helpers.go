package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// testConfig writes a configuration whose data directory lives under
// t.TempDir and returns its path.
func testConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "slabkit.toml")
	body := "data_dir = \"" + filepath.ToSlash(filepath.Join(dir, "data")) + "\"\n" + extra
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// resetFlags restores every flag variable to its default. Cobra keeps values
// between Execute calls.
func resetFlags() {
	configPath = "slabkit.toml"
	ownerArg = "default"
	logLevel = ""
	verbose, quiet, jsonOut = false, false, false
	writeHex, writeRepeat, readString = false, 1, false
	initTransient, slotClear, slotSeed = false, false, "record"
	slotGroup = [4]uint64{}
	tagArg = ""
	contrastKeep = false
}

// runCLI executes slabctl with args against cfgPath and returns stdout.
func runCLI(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	return captureOutput(t, func() error { return rootCmd.Execute() })
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	// Save original stdout
	origStdout := os.Stdout

	// Create a pipe to capture output
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}

	// Redirect stdout to pipe
	os.Stdout = w

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = buf.ReadFrom(r)
		close(done)
	}()

	// Run function
	fnErr := fn()

	// Close write end and restore stdout
	w.Close()
	os.Stdout = origStdout
	<-done

	return buf.String(), fnErr
}

// decodeJSON unmarshals command output into v.
func decodeJSON(t *testing.T, output string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(output), v); err != nil {
		t.Fatalf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

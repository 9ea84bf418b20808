// Package config loads slabkit settings from TOML.
//
// A missing file is not an error. Keys the file leaves out are filled with the
// reference host defaults after decoding, so an empty file and no file behave
// the same. The budget and allocation ceilings treat an explicit 0 as
// unlimited; the other keys treat 0 or "" as unset.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/joshuapare/slabkit/internal/logger"
	"github.com/joshuapare/slabkit/pkg/types"
	"github.com/joshuapare/slabkit/slab/budget"
	"github.com/joshuapare/slabkit/slab/dirty"
	"github.com/joshuapare/slabkit/slab/growable"
	"github.com/joshuapare/slabkit/slab/realloc"
	"github.com/joshuapare/slabkit/slab/records"
)

const (
	// DefaultProgramSeed names the program identity used when none is configured.
	DefaultProgramSeed = "slabkit"

	defaultDataDir = "slabs"
	catalogFile    = "catalog.db"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the decoded configuration file.
type Config struct {
	ProgramID types.Key `toml:"program_id"`
	DataDir   string    `toml:"data_dir"`
	Catalog   string    `toml:"catalog"`

	StackBudget   int   `toml:"stack_budget"`
	HeapBudget    int   `toml:"heap_budget"`
	MaxAllocation int64 `toml:"max_allocation"`
	MaxGrowth     int64 `toml:"max_growth"`

	GrowableCapacity int64 `toml:"growable_capacity"`
	TableLength      int   `toml:"table_length"`

	FlushMode string `toml:"flush_mode"`
	LogLevel  string `toml:"log_level"`
	LogFile   string `toml:"log_file"`
}

// Default returns a configuration with every field at its default.
func Default() Config {
	var c Config
	c.applyDefaults(toml.MetaData{})
	return c
}

// Load decodes path over the defaults. An empty path or a missing file yields
// Default().
func Load(path string) (Config, error) {
	var (
		c  Config
		md toml.MetaData
	)
	if path != "" {
		var err error
		md, err = toml.DecodeFile(path, &c)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	c.applyDefaults(md)
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Parse decodes TOML text over the defaults.
func Parse(text string) (Config, error) {
	var c Config
	md, err := toml.Decode(text, &c)
	if err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	c.applyDefaults(md)
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// applyDefaults fills unset fields. md reports which keys were decoded; a
// zero MetaData means none were.
func (c *Config) applyDefaults(md toml.MetaData) {
	if c.ProgramID.IsZero() {
		c.ProgramID = types.KeyFromSeed(DefaultProgramSeed)
	}
	if c.DataDir == "" {
		c.DataDir = defaultDataDir
	}
	if c.Catalog == "" {
		c.Catalog = filepath.Join(c.DataDir, catalogFile)
	}
	if !md.IsDefined("stack_budget") {
		c.StackBudget = budget.DefaultStack
	}
	if !md.IsDefined("heap_budget") {
		c.HeapBudget = budget.DefaultHeap
	}
	if !md.IsDefined("max_allocation") {
		c.MaxAllocation = realloc.DefaultMaxAllocation
	}
	if !md.IsDefined("max_growth") {
		c.MaxGrowth = realloc.DefaultMaxGrowth
	}
	if c.GrowableCapacity == 0 {
		c.GrowableCapacity = growable.DefaultCapacity
	}
	if c.TableLength == 0 {
		c.TableLength = records.DefaultLength
	}
	if c.FlushMode == "" {
		c.FlushMode = dirty.FlushAuto.String()
	}
}

// Validate rejects values no host could run with.
func (c Config) Validate() error {
	switch {
	case c.StackBudget < 0 || c.HeapBudget < 0:
		return fmt.Errorf("%w: negative transient budget", ErrInvalid)
	case c.MaxAllocation < 0 || c.MaxGrowth < 0:
		return fmt.Errorf("%w: negative allocation ceiling", ErrInvalid)
	case c.GrowableCapacity < 4:
		return fmt.Errorf("%w: growable_capacity %d leaves no room for the length prefix", ErrInvalid, c.GrowableCapacity)
	case c.TableLength < 1:
		return fmt.Errorf("%w: table_length %d", ErrInvalid, c.TableLength)
	}
	if _, err := dirty.ParseFlushMode(c.FlushMode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Budget returns the per-invocation transient ceilings.
func (c Config) Budget() budget.Limits {
	return budget.Limits{Stack: c.StackBudget, Heap: c.HeapBudget}
}

// Allocation returns the persisted-storage ceilings.
func (c Config) Allocation() realloc.Limits {
	return realloc.Limits{MaxAllocation: c.MaxAllocation, MaxGrowth: c.MaxGrowth}
}

// Flush returns the commit durability mode. Validate has already checked it.
func (c Config) Flush() dirty.FlushMode {
	m, _ := dirty.ParseFlushMode(c.FlushMode)
	return m
}

// EnsureDirs creates the data directory and the catalog's parent.
func (c Config) EnsureDirs() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Dir(c.Catalog), 0o755)
}

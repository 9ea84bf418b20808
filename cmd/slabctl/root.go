package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/joshuapare/slabkit/internal/logger"
	"github.com/joshuapare/slabkit/pkg/config"
	"github.com/joshuapare/slabkit/pkg/program"
	"github.com/joshuapare/slabkit/pkg/types"
)

var (
	// Global flags
	configPath string
	ownerArg   string
	logLevel   string
	verbose    bool
	quiet      bool
	jsonOut    bool
)

var rootCmd = &cobra.Command{
	Use:   "slabctl",
	Short: "Create and mutate persisted zero-copy buffers",
	Long: `slabctl runs single invocations against slab instances: fixed-capacity
zero-copy buffers, naive growable buffers and fixed-length record tables.
Each command is one invocation, metered against the configured transient
memory budget and committed atomically.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "slabkit.toml", "Configuration file (missing is fine)")
	rootCmd.PersistentFlags().StringVarP(&ownerArg, "owner", "o", "default", "Owner key: 64 hex characters, or any name to hash")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
}

func execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError("%v\n", err)
		stop()
		os.Exit(1)
	}
}

// openProgram loads the configuration, initializes logging and opens the
// program. The caller closes it.
func openProgram() (*program.Program, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	enabled := verbose || logLevel != "" || cfg.LogFile != ""
	if err := logger.Init(logger.Options{Enabled: enabled, File: cfg.LogFile, Writer: os.Stderr, Level: level}); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	printVerbose("Data directory: %s\n", cfg.DataDir)
	return program.Open(cfg)
}

// withProgram runs fn against an opened program and closes it afterwards.
func withProgram(fn func(p *program.Program) error) error {
	p, err := openProgram()
	if err != nil {
		return err
	}
	defer p.Close()
	return fn(p)
}

// parseOwner accepts a hex key or derives one from a name.
func parseOwner(s string) types.Key {
	if k, err := types.ParseKey(s); err == nil {
		return k
	}
	return types.KeyFromSeed(s)
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// formatSize renders a byte count the way info and ls display capacities.
func formatSize(size int64) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d bytes", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	}
}

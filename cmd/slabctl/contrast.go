package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/slabkit/pkg/config"
	"github.com/joshuapare/slabkit/pkg/program"
	"github.com/joshuapare/slabkit/pkg/types"
)

var contrastKeep bool

func init() {
	rootCmd.AddCommand(newContrastCmd())
}

func newContrastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contrast",
		Short: "Run the zero-copy and naive workloads side by side",
		Long: `contrast runs four workloads concurrently in a scratch data directory,
each against its own owner, under the configured budgets:

  fixed            a large zero-copy buffer written at two offsets
  growable         a naive buffer appended to until it fails
  table            a record table initialized slot by slot
  table-transient  a record table built in transient memory first

It reports which succeeded, the peak stack and heap each needed, and why
the failures failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			scratch, err := os.MkdirTemp("", "slabctl-contrast-")
			if err != nil {
				return err
			}
			if contrastKeep {
				printInfo("Scratch directory: %s\n", scratch)
			} else {
				defer os.RemoveAll(scratch)
			}
			cfg.DataDir = scratch
			cfg.Catalog = filepath.Join(scratch, "catalog.db")

			p, err := program.Open(cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			results, err := runContrast(cmd.Context(), p)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(results)
			}
			for _, r := range results {
				status := "ok"
				if r.Error != "" {
					status = "FAILED"
				}
				printInfo("%-16s %-6s peak stack %5d  heap %6d  %s\n", r.Workload, status, r.PeakStack, r.PeakHeap, r.Detail)
				if r.Error != "" {
					printVerbose("%-16s error: %s\n", "", r.Error)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&contrastKeep, "keep", false, "Keep the scratch directory")
	return cmd
}

// contrastResult is the outcome of one workload.
type contrastResult struct {
	Workload  string `json:"workload"`
	Detail    string `json:"detail"`
	PeakStack int    `json:"peak_stack"`
	PeakHeap  int    `json:"peak_heap"`
	Error     string `json:"error,omitempty"`
}

type workload struct {
	name string
	run  func(ctx context.Context, p *program.Program, owner types.Key) (string, error)
}

var workloads = []workload{
	{"fixed", func(ctx context.Context, p *program.Program, owner types.Key) (string, error) {
		capacity := int64(40952)
		if err := p.InitFixedBuffer(ctx, owner, capacity); err != nil {
			return "", err
		}
		if err := p.WriteFixed(ctx, owner, 0, []byte("hello")); err != nil {
			return "", err
		}
		if err := p.WriteFixed(ctx, owner, 912, bytes.Repeat([]byte{'A'}, 912)); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d byte buffer, writes charged only their own bytes", capacity), nil
	}},
	{"growable", func(ctx context.Context, p *program.Program, owner types.Key) (string, error) {
		if err := p.InitGrowableBuffer(ctx, owner); err != nil {
			return "", err
		}
		chunk := bytes.Repeat([]byte{'x'}, 1024)
		capacity := p.Config().GrowableCapacity
		stored, grown := 0, false
		for {
			err := p.AppendGrowable(ctx, owner, chunk)
			switch {
			case err == nil:
				stored += len(chunk)
				grown = false
				continue
			case errors.Is(err, types.ErrAllocationTooLarge) && !grown:
				// Out of persisted room: grow as far as one invocation may.
				capacity += max(p.Config().MaxGrowth, int64(len(chunk)))
				if err := p.GrowGrowable(ctx, owner, capacity); err != nil {
					return fmt.Sprintf("stored %d bytes, then could not grow", stored), err
				}
				grown = true
				continue
			}
			return fmt.Sprintf("stored %d bytes before failing", stored), err
		}
	}},
	{"table", func(ctx context.Context, p *program.Program, owner types.Key) (string, error) {
		if err := p.InitRecordTable(ctx, owner); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d slots written directly", p.Config().TableLength), nil
	}},
	{"table-transient", func(ctx context.Context, p *program.Program, owner types.Key) (string, error) {
		if err := p.InitRecordTableTransient(ctx, owner); err != nil {
			return fmt.Sprintf("%d slots built in transient memory", p.Config().TableLength), err
		}
		return fmt.Sprintf("%d slots built in transient memory", p.Config().TableLength), nil
	}},
}

// runContrast runs every workload concurrently. Workload failures are
// results; only cancellation aborts the run.
func runContrast(ctx context.Context, p *program.Program) ([]contrastResult, error) {
	base := parseOwner(ownerArg)
	results := make([]contrastResult, len(workloads))

	var mu sync.Mutex
	peaks := make(map[types.Key]*contrastResult)
	for i, w := range workloads {
		results[i].Workload = w.name
		owner := types.KeyFromSeed(base.String() + "/" + w.name)
		for _, tag := range []string{program.TagFixed, program.TagGrowable, program.TagTable} {
			peaks[p.Address(tag, owner)] = &results[i]
		}
	}
	p.Observe(func(r program.Report) {
		mu.Lock()
		defer mu.Unlock()
		if res, ok := peaks[r.Address]; ok {
			res.PeakStack = max(res.PeakStack, r.PeakStack)
			res.PeakHeap = max(res.PeakHeap, r.HeapUsed)
		}
	})
	defer p.Observe(nil)

	g, gctx := errgroup.WithContext(ctx)
	for i, w := range workloads {
		g.Go(func() error {
			owner := types.KeyFromSeed(base.String() + "/" + w.name)
			detail, err := w.run(gctx, p, owner)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			mu.Lock()
			results[i].Detail = detail
			if err != nil {
				results[i].Error = err.Error()
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

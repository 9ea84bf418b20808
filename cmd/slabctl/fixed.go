package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/slabkit/pkg/program"
)

var (
	writeHex    bool
	writeRepeat int
	readString  bool
)

func init() {
	rootCmd.AddCommand(newInitFixedCmd())
	rootCmd.AddCommand(newWriteCmd())
	rootCmd.AddCommand(newReadCmd())
	rootCmd.AddCommand(newGrowCmd())
}

func newInitFixedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-fixed <capacity>",
		Short: "Create the owner's zero-copy buffer",
		Long: `init-fixed creates a zero-filled fixed buffer of <capacity> bytes.
The capacity is limited only by max_allocation, never by the transient budget.

Example:
  slabctl init-fixed 40952 --owner alice`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			capacity, err := parseSize(args[0], "capacity")
			if err != nil {
				return err
			}
			return withProgram(func(p *program.Program) error {
				if err := p.InitFixedBuffer(cmd.Context(), parseOwner(ownerArg), capacity); err != nil {
					return err
				}
				printInfo("Created fixed buffer of %s\n", formatSize(capacity))
				return nil
			})
		},
	}
}

func newWriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write <offset> <data>",
		Short: "Write bytes into the owner's zero-copy buffer",
		Long: `write copies <data> into the fixed buffer at <offset>. The write fails
without changing anything unless it fits entirely.

Example:
  slabctl write 0 hello
  slabctl write 912 A --repeat 912
  slabctl write 16 deadbeef --hex`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := parseSize(args[0], "offset")
			if err != nil {
				return err
			}
			data, err := payload(args[1])
			if err != nil {
				return err
			}
			return withProgram(func(p *program.Program) error {
				if err := p.WriteFixed(cmd.Context(), parseOwner(ownerArg), offset, data); err != nil {
					return err
				}
				printInfo("Wrote %d bytes at offset %d\n", len(data), offset)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&writeHex, "hex", false, "Decode <data> as hex")
	cmd.Flags().IntVar(&writeRepeat, "repeat", 1, "Repeat <data> this many times")
	return cmd
}

func newReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read <offset> <length>",
		Short: "Read bytes from the owner's zero-copy buffer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := parseSize(args[0], "offset")
			if err != nil {
				return err
			}
			n, err := parseSize(args[1], "length")
			if err != nil {
				return err
			}
			return withProgram(func(p *program.Program) error {
				return runRead(cmd.Context(), p, offset, int(n))
			})
		},
	}
	cmd.Flags().BoolVar(&readString, "string", false, "Decode the bytes as UTF-8 text")
	return cmd
}

func runRead(ctx context.Context, p *program.Program, offset int64, n int) error {
	owner := parseOwner(ownerArg)
	if readString {
		s, err := p.ReadFixedString(ctx, owner, offset, n)
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(map[string]any{"offset": offset, "text": s})
		}
		printInfo("%s\n", s)
		return nil
	}

	b, err := p.ReadFixed(ctx, owner, offset, n)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(map[string]any{"offset": offset, "hex": hex.EncodeToString(b)})
	}
	printInfo("%s", hex.Dump(b))
	return nil
}

func newGrowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grow <capacity>",
		Short: "Grow the owner's zero-copy buffer",
		Long: `grow reallocates the fixed buffer to <capacity> bytes. Existing bytes are
kept and the new tail reads as zero. Shrinking is rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			capacity, err := parseSize(args[0], "capacity")
			if err != nil {
				return err
			}
			return withProgram(func(p *program.Program) error {
				if err := p.GrowFixed(cmd.Context(), parseOwner(ownerArg), capacity); err != nil {
					return err
				}
				printInfo("Fixed buffer is now %s\n", formatSize(capacity))
				return nil
			})
		},
	}
}

// parseSize parses a non-negative decimal or 0x-prefixed integer argument.
func parseSize(s, what string) (int64, error) {
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return v, nil
}

// payload turns a data argument into bytes per --hex and --repeat.
func payload(arg string) ([]byte, error) {
	data := []byte(arg)
	if writeHex {
		var err error
		if data, err = hex.DecodeString(arg); err != nil {
			return nil, fmt.Errorf("invalid hex data: %w", err)
		}
	}
	if writeRepeat < 0 {
		return nil, fmt.Errorf("invalid repeat count %d", writeRepeat)
	}
	if writeRepeat != 1 {
		data = []byte(strings.Repeat(string(data), writeRepeat))
	}
	return data, nil
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/slabkit/pkg/program"
)

func init() {
	rootCmd.AddCommand(newInitGrowableCmd())
	rootCmd.AddCommand(newAppendCmd())
	rootCmd.AddCommand(newGrowGrowableCmd())
	rootCmd.AddCommand(newTextCmd())
}

func newInitGrowableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-growable",
		Short: "Create the owner's naive growable buffer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProgram(func(p *program.Program) error {
				if err := p.InitGrowableBuffer(cmd.Context(), parseOwner(ownerArg)); err != nil {
					return err
				}
				printInfo("Created growable buffer of %s\n", formatSize(p.Config().GrowableCapacity))
				return nil
			})
		},
	}
}

func newAppendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "append <data>",
		Short: "Append bytes to the owner's naive buffer",
		Long: `append rebuilds the whole content with <data> appended, so the content can
never outgrow the transient heap budget even when the region has room.

Example:
  slabctl append xxxxxxxx --repeat 300`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := payload(args[0])
			if err != nil {
				return err
			}
			return withProgram(func(p *program.Program) error {
				if err := p.AppendGrowable(cmd.Context(), parseOwner(ownerArg), data); err != nil {
					return err
				}
				printInfo("Appended %d bytes\n", len(data))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&writeHex, "hex", false, "Decode <data> as hex")
	cmd.Flags().IntVar(&writeRepeat, "repeat", 1, "Repeat <data> this many times")
	return cmd
}

func newGrowGrowableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grow-growable <capacity>",
		Short: "Grow the region of the owner's naive buffer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			capacity, err := parseSize(args[0], "capacity")
			if err != nil {
				return err
			}
			return withProgram(func(p *program.Program) error {
				if err := p.GrowGrowable(cmd.Context(), parseOwner(ownerArg), capacity); err != nil {
					return err
				}
				printInfo("Growable region is now %s\n", formatSize(capacity))
				return nil
			})
		},
	}
}

func newTextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "text",
		Short: "Print the owner's naive buffer as text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProgram(func(p *program.Program) error {
				s, err := p.GrowableText(cmd.Context(), parseOwner(ownerArg))
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(map[string]any{"length": len(s), "text": s})
				}
				printInfo("%s\n", s)
				return nil
			})
		},
	}
}

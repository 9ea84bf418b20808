package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joshuapare/slabkit/pkg/program"
)

var tagArg string

func init() {
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newLsCmd())
}

// resolveTag maps the short namespace names accepted on the command line.
func resolveTag(s string) (string, error) {
	switch s {
	case "fixed", program.TagFixed:
		return program.TagFixed, nil
	case "growable", program.TagGrowable:
		return program.TagGrowable, nil
	case "table", program.TagTable:
		return program.TagTable, nil
	case "":
		return "", nil
	default:
		return "", fmt.Errorf("unknown namespace %q (want fixed, growable or table)", s)
	}
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Report the header of one of the owner's instances",
		Long: `info reads the slab header of the owner's instance in one namespace and
reports its kind, capacity, sequence numbers and checksum state.

Example:
  slabctl info --tag fixed --owner alice
  slabctl info --tag table --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, err := resolveTag(tagArg)
			if err != nil {
				return err
			}
			if tag == "" {
				return fmt.Errorf("--tag is required")
			}
			return withProgram(func(p *program.Program) error {
				info, err := p.Describe(cmd.Context(), tag, parseOwner(ownerArg))
				if err != nil {
					return fmt.Errorf("failed to get instance info: %w", err)
				}
				if jsonOut {
					return printJSON(info)
				}
				printInfo("\nInstance Information:\n")
				printInfo("  File: %s\n", info.Path)
				printInfo("  Address: %s\n", info.Address)
				printInfo("  Owner: %s\n", info.Owner)
				printInfo("  Namespace: %s\n", info.Tag)
				printInfo("  Kind: %s\n", info.Kind)
				printInfo("  Capacity: %s\n", formatSize(info.Capacity))
				printInfo("  Sequence: %d\n", info.Sequence)
				printInfo("  Last write: %s\n", info.LastWrite.Format("2006-01-02 15:04:05"))
				printInfo("\nValidation:\n")
				printInfo("  %s Header checksum\n", mark(info.ChecksumValid))
				printInfo("  %s Last invocation committed\n", mark(info.Clean))
				printInfo("  %s Cataloged\n", mark(info.Cataloged))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&tagArg, "tag", "t", "", "Namespace: fixed, growable or table")
	return cmd
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List cataloged instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, err := resolveTag(tagArg)
			if err != nil {
				return err
			}
			return withProgram(func(p *program.Program) error {
				entries, err := p.List(cmd.Context(), tag)
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(entries)
				}
				if len(entries) == 0 {
					printInfo("No instances\n")
					return nil
				}
				if quiet {
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ADDRESS\tKIND\tCAPACITY\tINVOCATIONS\tUPDATED")
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
						e.Address.String()[:16], e.Kind, formatSize(e.Capacity), e.Invocations,
						e.UpdatedAt().Format("2006-01-02 15:04:05"))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVarP(&tagArg, "tag", "t", "", "Only list one namespace: fixed, growable or table")
	return cmd
}

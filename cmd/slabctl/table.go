package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joshuapare/slabkit/pkg/program"
	"github.com/joshuapare/slabkit/pkg/types"
	"github.com/joshuapare/slabkit/slab/records"
)

var (
	initTransient bool
	slotClear     bool
	slotSeed      string
	slotGroup     [4]uint64
)

func init() {
	rootCmd.AddCommand(newInitTableCmd())
	rootCmd.AddCommand(newSetSlotCmd())
	rootCmd.AddCommand(newSlotCmd())
}

func newInitTableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-table",
		Short: "Create the owner's record table",
		Long: `init-table creates a table of table_length empty slots, writing each slot
directly into storage. With --transient the whole table is built in
transient memory first, which exceeds the stack budget for the reference
table length.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProgram(func(p *program.Program) error {
				owner := parseOwner(ownerArg)
				initFn := p.InitRecordTable
				if initTransient {
					initFn = p.InitRecordTableTransient
				}
				if err := initFn(cmd.Context(), owner); err != nil {
					return err
				}
				printInfo("Created record table of %d slots\n", p.Config().TableLength)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&initTransient, "transient", false, "Build the whole table in transient memory first")
	return cmd
}

func newSetSlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-slot <index>",
		Short: "Store or clear one record of the owner's table",
		Long: `set-slot stores a record at <index>. Its four keys are derived from --seed
and its group fields come from --a, --b, --c and --d. With --clear the slot
is emptied instead.

Example:
  slabctl set-slot 3 --seed order-17 --a 1 --b 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			var rec *records.Record
			if !slotClear {
				rec = recordFromFlags()
			}
			return withProgram(func(p *program.Program) error {
				if err := p.SetRecordSlot(cmd.Context(), parseOwner(ownerArg), index, rec); err != nil {
					return err
				}
				if rec == nil {
					printInfo("Cleared slot %d\n", index)
				} else {
					printInfo("Stored record in slot %d\n", index)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&slotClear, "clear", false, "Empty the slot")
	cmd.Flags().StringVar(&slotSeed, "seed", "record", "Name the record keys are derived from")
	cmd.Flags().Uint64Var(&slotGroup[0], "a", 0, "Group field A")
	cmd.Flags().Uint64Var(&slotGroup[1], "b", 0, "Group field B")
	cmd.Flags().Uint64Var(&slotGroup[2], "c", 0, "Group field C")
	cmd.Flags().Uint64Var(&slotGroup[3], "d", 0, "Group field D")
	return cmd
}

func recordFromFlags() *records.Record {
	return &records.Record{
		Key1:  types.KeyFromSeed(slotSeed + "/1"),
		Key2:  types.KeyFromSeed(slotSeed + "/2"),
		Key3:  types.KeyFromSeed(slotSeed + "/3"),
		Key4:  types.KeyFromSeed(slotSeed + "/4"),
		Group: records.Group{A: slotGroup[0], B: slotGroup[1], C: slotGroup[2], D: slotGroup[3]},
	}
}

// slotView is the printable form of a record slot.
type slotView struct {
	Index   int            `json:"index"`
	Present bool           `json:"present"`
	Keys    []types.Key    `json:"keys,omitempty"`
	Group   *records.Group `json:"group,omitempty"`
}

func newSlotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slot <index>",
		Short: "Print one record of the owner's table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			return withProgram(func(p *program.Program) error {
				rec, err := p.RecordSlot(cmd.Context(), parseOwner(ownerArg), index)
				if err != nil {
					return err
				}
				v := slotView{Index: index, Present: rec != nil}
				if rec != nil {
					v.Keys = []types.Key{rec.Key1, rec.Key2, rec.Key3, rec.Key4}
					v.Group = &rec.Group
				}
				if jsonOut {
					return printJSON(v)
				}
				if !v.Present {
					printInfo("Slot %d: empty\n", index)
					return nil
				}
				printInfo("Slot %d:\n", index)
				for i, k := range v.Keys {
					printInfo("  key%d: %s\n", i+1, k)
				}
				printInfo("  group: a=%d b=%d c=%d d=%d\n", rec.Group.A, rec.Group.B, rec.Group.C, rec.Group.D)
				return nil
			})
		},
	}
}

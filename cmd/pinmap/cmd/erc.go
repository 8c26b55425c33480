package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/erc"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
)

var ercCmd = &cobra.Command{
	Use:   "erc [type-a type-b]",
	Short: "Check whether two electrical pin types may share a net",
	Long: `With two electrical types, print the verdict for connecting them. Without
arguments, print the whole rule matrix.

Examples:
  pinmap erc output power_out
  pinmap erc`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expected zero or two electrical types, got %d", len(args))
		}
		return nil
	},
	RunE: runERC,
}

func init() {
	rootCmd.AddCommand(ercCmd)
}

func runERC(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(args) == 2 {
		a, err := hw.ParseElectricalType(args[0])
		if err != nil {
			return err
		}
		b, err := hw.ParseElectricalType(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s <-> %s: %s\n", a, b, erc.Check(a, b))
		if why := erc.Explain(a, b); why != "" {
			fmt.Fprintf(out, "  %s\n", why)
		}
		return nil
	}

	fmt.Fprintf(out, "%-14s", "")
	for _, b := range hw.ElectricalTypes {
		fmt.Fprintf(out, " %-13s", b)
	}
	fmt.Fprintln(out)
	for _, a := range hw.ElectricalTypes {
		fmt.Fprintf(out, "%-14s", a)
		for _, b := range hw.ElectricalTypes {
			fmt.Fprintf(out, " %-13s", erc.Check(a, b))
		}
		fmt.Fprintln(out)
	}
	return nil
}

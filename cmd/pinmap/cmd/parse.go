package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/boardfile"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
)

var showPins bool

var parseCmd = &cobra.Command{
	Use:   "parse <board-file>",
	Short: "Parse and check a board definition file",
	Long: `Parse a .board file and report every board it defines, including its
rails and timers.

Examples:
  pinmap parse boards/uno.board
  pinmap parse --pins boards/uno.board`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().BoolVarP(&showPins, "pins", "p", false, "show every pin")
}

func runParse(cmd *cobra.Command, args []string) error {
	filename := args[0]
	out := cmd.OutOrStdout()

	if verbose {
		fmt.Fprintf(out, "Parsing board file: %s\n\n", filename)
	}

	parser, err := boardfile.NewParser()
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}
	file, err := parser.ParseFile(filename)
	if err != nil {
		return fmt.Errorf("failed to parse file: %w", err)
	}
	boards, err := file.ToBoards()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Boards: %d\n", len(boards))
	for _, b := range boards {
		fmt.Fprintf(out, "\n%s (%s)\n", b.ID, b.Name)
		fmt.Fprintf(out, "  Supply %.1fV, logic %.1fV, %.0fmA\n", b.SupplyVoltage, b.LogicVoltage, b.MaxCurrentMA)

		caps := []hw.Capability{hw.Digital, hw.Analog, hw.Pwm, hw.I2cSda, hw.SpiSck, hw.Power5V, hw.Ground}
		fmt.Fprintf(out, "  Pins: %d total", len(b.Pins))
		for _, c := range caps {
			if n := b.CountWith(c); n > 0 {
				fmt.Fprintf(out, ", %d %s", n, c)
			}
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  Timers: %d\n", len(b.Timers))

		if showPins || verbose {
			for _, p := range b.Pins {
				fmt.Fprintf(out, "    %-6s %-14s %s\n", p.ID, p.Type, p.Caps)
			}
		}
	}
	return nil
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/boardfile"
)

var showDefinition bool

var boardsCmd = &cobra.Command{
	Use:   "boards [board-id]",
	Short: "List boards or show one board",
	Long: `Without arguments, list every board in the catalog. With a board id,
show its pins, rails and timers.

Examples:
  pinmap boards
  pinmap boards UNO_R3
  pinmap boards UNO_R3 --definition > uno.board`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBoards,
}

func init() {
	rootCmd.AddCommand(boardsCmd)

	boardsCmd.Flags().BoolVarP(&showDefinition, "definition", "d", false,
		"print the board in board-file syntax")
}

func runBoards(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		fmt.Fprintf(out, "%-14s %-26s %6s %6s %8s %5s\n", "ID", "NAME", "SUPPLY", "LOGIC", "CURRENT", "PINS")
		for _, b := range cat.Boards() {
			fmt.Fprintf(out, "%-14s %-26s %5.1fV %5.1fV %6.0fmA %5d\n",
				b.ID, b.Name, b.SupplyVoltage, b.LogicVoltage, b.MaxCurrentMA, len(b.Pins))
		}
		return nil
	}

	b, err := cat.LookupBoard(args[0])
	if err != nil {
		return err
	}
	if showDefinition {
		return boardfile.Write(out, b)
	}

	fmt.Fprintf(out, "Board: %s (%s)\n", b.ID, b.Name)
	fmt.Fprintf(out, "  Supply:      %.1fV\n", b.SupplyVoltage)
	fmt.Fprintf(out, "  Logic:       %.1fV\n", b.LogicVoltage)
	fmt.Fprintf(out, "  Max current: %.0fmA\n", b.MaxCurrentMA)
	fiveVolt, ground := b.RailLimits()
	fmt.Fprintf(out, "  Rails:       %d x 5V, %d x GND\n\n", fiveVolt, ground)

	fmt.Fprintf(out, "Pins: %d\n", len(b.Pins))
	for _, p := range b.Pins {
		fmt.Fprintf(out, "  %-6s %-14s %s\n", p.ID, p.Type, p.Caps)
	}

	if len(b.Timers) > 0 {
		fmt.Fprintf(out, "\nTimers:\n")
		for _, t := range b.Timers {
			fmt.Fprintf(out, "  %-8s %s\n", t.Name, strings.Join(t.Pins, ", "))
		}
	}
	return nil
}

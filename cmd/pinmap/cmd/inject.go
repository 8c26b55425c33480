package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/inject"
)

var injectCmd = &cobra.Command{
	Use:   "inject",
	Short: "Show the support parts a build needs",
	Long: `Run only the dependency rules: drive motors for wheeled builds, a motor
driver, external power, current-limiting resistors and flyback diodes.

Examples:
  pinmap inject --board UNO_R3 -c led -c led
  pinmap inject --board UNO_R3 -c hc_sr04 --hint "line following car"`,
	Args: cobra.NoArgs,
	RunE: runInject,
}

func init() {
	rootCmd.AddCommand(injectCmd)

	injectCmd.Flags().StringVarP(&boardID, "board", "b", "", "board id")
	injectCmd.Flags().StringArrayVarP(&componentIDs, "component", "c", nil, "component type id (repeatable)")
	injectCmd.Flags().StringVar(&hint, "hint", "", "free-text project description")
	injectCmd.Flags().StringVar(&mobilityFlag, "mobility", "unknown", "build mobility: unknown, static or wheeled")
	injectCmd.MarkFlagRequired("board")
}

func runInject(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	board, err := cat.LookupBoard(boardID)
	if err != nil {
		return err
	}
	comps, err := cat.Resolve(componentIDs)
	if err != nil {
		return err
	}
	mobility, err := inject.ParseMobility(mobilityFlag)
	if err != nil {
		return err
	}

	instances, _ := hw.AssignInstanceIDs(comps)
	res := inject.New(cat, inject.DefaultRules()).Inject(board, instances, hint, mobility)

	out := cmd.OutOrStdout()
	if len(res.Injected) == 0 {
		fmt.Fprintf(out, "No support parts needed\n")
	} else {
		fmt.Fprintf(out, "Injected: %d part(s)\n", len(res.Injected))
		for _, in := range res.Injected {
			fmt.Fprintf(out, "  %-18s %-14s %s\n", in.InstanceID, in.Role, in.Reason)
		}
	}
	if len(res.PreAssigned) > 0 {
		fmt.Fprintf(out, "\nWiring:\n")
		for _, key := range res.PreAssigned.Keys() {
			fmt.Fprintf(out, "  %-24s -> %s\n", key, res.PreAssigned[key])
		}
	}
	if res.NeedsBreadboard {
		fmt.Fprintf(out, "\nBreadboard: recommended\n")
	}
	for _, a := range res.Advisories {
		fmt.Fprintf(out, "  - %s\n", a)
	}
	return nil
}

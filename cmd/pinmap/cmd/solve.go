package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/inject"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/pinout"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/solver"
)

var (
	boardID       string
	componentIDs  []string
	hint          string
	mobilityFlag  string
	preAssigned   map[string]string
	maxBacktracks int
	timeout       time.Duration
	strictTimers  bool
	outputJSON    string
	outputKiCad   string
	requestsFile  string
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Assign component pins to board pins",
	Long: `Run the full planner: add support parts, assign every pin, validate the
mapping and build the netlist.

Examples:
  pinmap solve --board UNO_R3 -c led -c buzzer
  pinmap solve --board UNO_R3 -c hc_sr04 --mobility wheeled --output plan.json
  pinmap solve --board NANO -c nrf24l01 --pre nrf24l01_0.CE=D7 --output-kicad radio.net
  pinmap solve --requests builds.json`,
	Args: cobra.NoArgs,
	RunE: runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)

	solveCmd.Flags().StringVarP(&boardID, "board", "b", "", "board id")
	solveCmd.Flags().StringArrayVarP(&componentIDs, "component", "c", nil,
		"component type id (repeat for more parts, order matters)")
	solveCmd.Flags().StringVar(&hint, "hint", "", "free-text project description")
	solveCmd.Flags().StringVar(&mobilityFlag, "mobility", "unknown", "build mobility: unknown, static or wheeled")
	solveCmd.Flags().StringToStringVar(&preAssigned, "pre", nil, "fixed connection instance.PIN=target")
	solveCmd.Flags().IntVar(&maxBacktracks, "max-backtracks", solver.DefaultMaxBacktracks, "search budget")
	solveCmd.Flags().DurationVar(&timeout, "timeout", 0, "wall-clock limit per plan (0 for none)")
	solveCmd.Flags().BoolVar(&strictTimers, "strict-timers", false,
		"keep PWM requirements off pins whose timer is taken by a library")
	solveCmd.Flags().StringVarP(&outputJSON, "output", "o", "", "write the plan as JSON to this file")
	solveCmd.Flags().StringVar(&outputKiCad, "output-kicad", "", "write the netlist in KiCad format to this file")
	solveCmd.Flags().StringVar(&requestsFile, "requests", "", "JSON file with a list of requests to plan in parallel")
}

func newPlanner(cmd *cobra.Command) (*pinout.Planner, error) {
	cat, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	cfg := pinout.DefaultConfig()
	cfg.Solver.MaxBacktracks = maxBacktracks
	cfg.Solver.Timeout = timeout
	if strictTimers {
		cfg.Solver.TimerPolicy = solver.TimerStrict
	}
	return pinout.New(cat, cfg, logger(cmd))
}

func runSolve(cmd *cobra.Command, args []string) error {
	planner, err := newPlanner(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if requestsFile != "" {
		return runBatch(contextOf(cmd), out, planner)
	}

	if boardID == "" {
		return fmt.Errorf("--board is required")
	}
	mobility, err := inject.ParseMobility(mobilityFlag)
	if err != nil {
		return err
	}
	req := pinout.Request{
		Board:       boardID,
		Components:  componentIDs,
		Hint:        hint,
		Mobility:    mobility,
		PreAssigned: hw.PinMapping(preAssigned),
	}

	if verbose {
		fmt.Fprintf(out, "Planning %d component(s) on %s\n\n", len(req.Components), req.Board)
	}

	res, err := planner.Plan(contextOf(cmd), req)
	if err != nil {
		printFailure(cmd.ErrOrStderr(), err)
		return err
	}
	printResult(out, res)

	if outputJSON != "" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode plan: %w", err)
		}
		if err := os.WriteFile(outputJSON, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("failed to write plan: %w", err)
		}
		fmt.Fprintf(out, "\nPlan written to %s\n", outputJSON)
	}
	if outputKiCad != "" {
		text, err := res.Netlist.ExportKiCad()
		if err != nil {
			return err
		}
		if err := os.WriteFile(outputKiCad, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write netlist: %w", err)
		}
		fmt.Fprintf(out, "Netlist written to %s\n", outputKiCad)
	}
	return nil
}

func runBatch(ctx context.Context, out io.Writer, planner *pinout.Planner) error {
	data, err := os.ReadFile(requestsFile)
	if err != nil {
		return fmt.Errorf("failed to read requests: %w", err)
	}
	var reqs []pinout.Request
	if err := json.Unmarshal(data, &reqs); err != nil {
		return fmt.Errorf("failed to decode requests: %w", err)
	}
	results, err := planner.PlanAll(ctx, reqs)
	if err != nil {
		return err
	}
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "=== Request %d ===\n", i)
		printResult(out, res)
	}
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printResult(out io.Writer, res *pinout.Result) {
	fmt.Fprintf(out, "Board: %s\n", res.Board)

	ids := make([]string, len(res.Instances))
	for i, inst := range res.Instances {
		ids[i] = inst.ID
	}
	fmt.Fprintf(out, "Parts: %s\n", strings.Join(ids, ", "))

	if len(res.Injected) > 0 {
		fmt.Fprintf(out, "\nInjected: %d part(s)\n", len(res.Injected))
		for _, in := range res.Injected {
			fmt.Fprintf(out, "  %-18s %s\n", in.InstanceID, in.Reason)
		}
	}

	fmt.Fprintf(out, "\nMapping: %d connection(s)\n", len(res.Mapping))
	for _, key := range res.Mapping.Keys() {
		fmt.Fprintf(out, "  %-24s -> %s\n", key, res.Mapping[key])
	}

	fmt.Fprintf(out, "\nBacktracks: %d\n", res.Backtracks)
	if res.NeedsBreadboard {
		fmt.Fprintf(out, "Breadboard: recommended\n")
	} else {
		fmt.Fprintf(out, "Breadboard: not needed\n")
	}

	if len(res.Advisories) > 0 {
		fmt.Fprintf(out, "\nAdvisories:\n")
		for _, a := range res.Advisories {
			fmt.Fprintf(out, "  - %s\n", a)
		}
	}
	if len(res.Warnings) > 0 {
		fmt.Fprintf(out, "\nWarnings:\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
	}
	if verbose {
		fmt.Fprintf(out, "\nNets: %d\n", len(res.Nets))
		for _, n := range res.Nets {
			nodes := make([]string, len(n.Nodes))
			for i, node := range n.Nodes {
				nodes[i] = node.String()
			}
			fmt.Fprintf(out, "  %-12s %s\n", n.Name, strings.Join(nodes, " "))
		}
	}
}

func printFailure(w io.Writer, err error) {
	f, ok := solver.AsFailure(err)
	if !ok {
		return
	}
	fmt.Fprintf(w, "No mapping found (%s)\n", f.Kind)
	if f.Capability != "" {
		fmt.Fprintf(w, "  Capability:   %s\n", f.Capability)
	}
	if len(f.Components) > 0 {
		fmt.Fprintf(w, "  Components:   %s\n", strings.Join(f.Components, ", "))
	}
	if len(f.Requirements) > 0 {
		fmt.Fprintf(w, "  Requirements: %s\n", strings.Join(f.Requirements, ", "))
	}
	if len(f.Pins) > 0 {
		fmt.Fprintf(w, "  Pins:         %s\n", strings.Join(f.Pins, ", "))
	}
	if f.Backtracks > 0 {
		fmt.Fprintf(w, "  Backtracks:   %d\n", f.Backtracks)
	}
}

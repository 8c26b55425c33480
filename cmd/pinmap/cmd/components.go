package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/catalog"
	"github.com/OpenTraceLab/OpenTracePinmap/pkg/hw"
)

var dumpYAML bool

var componentsCmd = &cobra.Command{
	Use:   "components [type...]",
	Short: "List components or show their pin requirements",
	Long: `Without arguments, list every component type in the catalog. With type
ids, show their pins and electrical ratings.

Examples:
  pinmap components
  pinmap components l298n sg90
  pinmap components --yaml > parts.yaml`,
	RunE: runComponents,
}

func init() {
	rootCmd.AddCommand(componentsCmd)

	componentsCmd.Flags().BoolVar(&dumpYAML, "yaml", false, "print definitions as a component YAML file")
}

func runComponents(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	comps := cat.Components()
	if len(args) > 0 {
		if comps, err = cat.Resolve(args); err != nil {
			return err
		}
	}

	if dumpYAML {
		cf := &catalog.ComponentFile{Version: "1"}
		for _, c := range comps {
			cf.Components = append(cf.Components, *c)
		}
		data, err := catalog.MarshalComponents(cf)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	if len(args) == 0 {
		fmt.Fprintf(out, "%-14s %-14s %-9s %8s %s\n", "TYPE", "ROLE", "PROTOCOL", "CURRENT", "NAME")
		for _, c := range comps {
			fmt.Fprintf(out, "%-14s %-14s %-9s %6.1fmA %s\n", c.Type, c.Role, c.Protocol, c.CurrentMA, c.Name)
		}
		return nil
	}

	for i, c := range comps {
		if i > 0 {
			fmt.Fprintln(out)
		}
		printComponent(cmd, c)
	}
	return nil
}

func printComponent(cmd *cobra.Command, c *hw.Component) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Component: %s (%s)\n", c.Type, c.Name)
	fmt.Fprintf(out, "  Role:     %s\n", c.Role)
	fmt.Fprintf(out, "  Protocol: %s\n", c.Protocol)
	if c.Passive() {
		fmt.Fprintf(out, "  Voltage:  any\n")
	} else {
		fmt.Fprintf(out, "  Voltage:  %.1fV - %.1fV (logic up to %.1fV)\n", c.MinVoltage, c.MaxVoltage, c.LogicLimit())
	}
	fmt.Fprintf(out, "  Current:  %.1fmA", c.CurrentMA)
	if c.Peak() > c.CurrentMA {
		fmt.Fprintf(out, " (peak %.0fmA)", c.Peak())
	}
	if c.ExternalPower {
		fmt.Fprintf(out, " external")
	}
	fmt.Fprintln(out)

	if len(c.Pins) == 0 {
		return
	}
	fmt.Fprintf(out, "  Pins:\n")
	for _, r := range c.Pins {
		opt := ""
		if r.Optional {
			opt = " (optional)"
		}
		fmt.Fprintf(out, "    %-8s %-10s %s%s\n", r.Name, r.Capability, r.Type, opt)
	}
}

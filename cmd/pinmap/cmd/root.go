package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePinmap/pkg/catalog"
)

var (
	// Global flags
	verbose    bool
	catalogDir string
)

var rootCmd = &cobra.Command{
	Use:   "pinmap",
	Short: "Microcontroller pin assignment planner",
	Long: `Plan how hobby components wire to a microcontroller board: add the
support parts a build needs, assign every component pin to a board pin,
check the result electrically and export the netlist.

Examples:
  pinmap solve --board UNO_R3 -c led -c sg90               # Plan an LED and a servo
  pinmap solve --board UNO_R3 -c hc_sr04 --hint "robot car" # Wheeled build with motors
  pinmap boards                                             # List known boards
  pinmap parse myboard.board                                # Check a board file`,
	Version:       "0.9.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&catalogDir, "catalog", "",
		"directory of extra .board and .yaml definitions (overrides built-ins)")
}

// logger returns the diagnostics logger for library packages.
func logger(cmd *cobra.Command) *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "pinmap: ", 0)
}

// loadCatalog returns the built-in catalog, extended by --catalog.
func loadCatalog() (*catalog.Catalog, error) {
	if catalogDir == "" {
		return catalog.Default()
	}
	repo := catalog.NewMemoryRepository()
	if err := repo.LoadDefaults(); err != nil {
		return nil, err
	}
	if err := repo.LoadDir(catalogDir); err != nil {
		return nil, err
	}
	return repo.Catalog()
}

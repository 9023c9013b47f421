package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set via -ldflags at release build time.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "simframe",
		Short: "Simulate reaction networks coupled across cell populations",
		Long: `simframe integrates systems of biochemical reaction networks shared by
populations of cells. A model declares species, rate-law edges, cell
positions, and cross-cell interactions; simframe validates it, integrates
the assembled system, and renders trajectories as CSV tables, charts,
lattice videos, or Graphviz graphs.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON where supported")
	rootCmd.PersistentFlags().String("log-level", "info", "Log verbosity: info, debug, or trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newGraphCmd(),
		newLubenskyCmd(),
	)

	return rootCmd
}

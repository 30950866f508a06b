package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gridcast",
		Short: "Stream compressed elevation grids to remote viewers",
		Long: `Gridcast broadcasts bathymetry, water level, and snow height
grids from a simulation host to remote viewers over a compact
delta-compressed byte stream.

The serve command runs a streaming server fed by a built-in demo
surface; the watch command connects to a server and reports the
frames it decodes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		watchCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

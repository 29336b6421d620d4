package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "conduit",
	Short: "Conduit - mediated external-communication gateway",
	Long: `Conduit is a mediated external-communication gateway for agent platforms.

It sits between an agent runtime and the outside world, providing:
  - Per-connector communication policies with approval gates
  - A global network mode switch (ON / READ_ONLY / OFF)
  - SSRF-guarded web fetch, search, and RSS connectors
  - Input/output sanitization and credential redaction
  - A persistent evidence trail for every attempt, denied or not`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (built-in defaults when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vibe",
	Short: "Workflow engine that drives AI coding agents through a development process",
	Long: `vibe tracks a finite-state development workflow per conversation
(e.g. explore -> plan -> code -> commit), computes which transition is
legal next, and emits phase-specific instructions for the agent.

It is usually run as an MCP server ('vibe serve') and configured through
a YAML file plus VIBE_-prefixed environment variables.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
}

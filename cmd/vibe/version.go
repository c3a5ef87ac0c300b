package main

import (
	"fmt"

	"github.com/spf13/cobra"

	vibe "github.com/mrsimpson/responsible-vibe-mcp-sub000"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vibe %s\n", vibe.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

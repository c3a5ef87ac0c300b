package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/adapters/workflowdir"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Validate workflow definitions",
	Long: `Loads and validates every workflow definition in the given directory
(plus the bundled workflows) and reports authoring defects: dangling
transition targets, missing initial states, ambiguous trigger/role pairs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) > 0 {
			dir = args[0]
		}

		source := workflowdir.New(dir)
		names, err := source.ListWorkflows()
		if err != nil {
			return err
		}

		failed := 0
		for _, name := range names {
			if _, err := source.LoadWorkflow(name); err != nil {
				fmt.Printf("FAIL  %s: %v\n", name, err)
				failed++
				continue
			}
			fmt.Printf("ok    %s\n", name)
		}

		if failed > 0 {
			return fmt.Errorf("%d workflow(s) failed validation", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

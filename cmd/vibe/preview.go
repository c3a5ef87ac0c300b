package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/internal/render"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"
)

var previewPlain bool

var previewCmd = &cobra.Command{
	Use:   "preview <workflow> [state]",
	Short: "Render the instructions an agent would receive in a phase",
	Long: `Renders the default instructions of a workflow phase the way an agent
would see them, with variables substituted with placeholder values.
Markdown is styled when stdout is a terminal; pipe the output or pass
--plain for raw text.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := buildEngine(cmd)
		if err != nil {
			return err
		}

		def, err := env.engine.Workflow(args[0])
		if err != nil {
			return err
		}

		stateName := def.InitialState
		if len(args) > 1 {
			stateName = args[1]
		}
		state, ok := def.States[stateName]
		if !ok {
			return &domain.UnknownStateError{Workflow: def.Name, State: stateName}
		}

		text := render.Substitute(state.DefaultInstructions, map[string]string{
			"CONVERSATION_ID": "preview",
			"WORKFLOW":        def.Name,
			"PROJECT_PATH":    env.cfg.ProjectPath,
		})

		var b strings.Builder
		fmt.Fprintf(&b, "# %s / %s\n\n", def.Name, state.Name)
		if len(state.EntranceCriteria) > 0 {
			b.WriteString("**Entrance criteria**\n\n")
			for _, c := range state.EntranceCriteria {
				fmt.Fprintf(&b, "- %s\n", c)
			}
			b.WriteString("\n")
		}
		b.WriteString(text)
		b.WriteString("\n\n**Triggers**\n\n")
		triggers := make([]string, 0, len(state.Transitions))
		for _, t := range state.Transitions {
			label := t.Trigger
			if t.Role != "" {
				label += " (" + t.Role + ")"
			}
			triggers = append(triggers, fmt.Sprintf("- `%s` → %s", label, t.To))
		}
		sort.Strings(triggers)
		b.WriteString(strings.Join(triggers, "\n"))
		b.WriteString("\n")

		out := b.String()
		if previewPlain || !term.IsTerminal(int(os.Stdout.Fd())) || termenv.ColorProfile() == termenv.Ascii {
			fmt.Print(out)
			return nil
		}

		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			fmt.Print(out)
			return nil
		}
		styled, err := r.Render(out)
		if err != nil {
			fmt.Print(out)
			return nil
		}
		fmt.Print(styled)
		return nil
	},
}

func init() {
	previewCmd.Flags().BoolVar(&previewPlain, "plain", false, "disable markdown styling")
	rootCmd.AddCommand(previewCmd)
}

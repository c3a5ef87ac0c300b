// Package autocommit checkpoints work-in-progress git commits around phase
// transitions, and reminds the terminal phase to produce the final commit.
//
// It is a convenience, not a gate: every git failure is logged and
// swallowed, so the plugin can never block a transition even though it
// participates in the beforePhaseTransition hook.
package autocommit

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/internal/logging"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/plugin"
)

// EnvToggle activates the plugin when set to a truthy value.
const EnvToggle = "VIBE_AUTOCOMMIT_ENABLED"

// Settings configure the commit automation.
type Settings struct {
	// Git is the git binary. Defaults to "git".
	Git string `mapstructure:"git"`

	// FinalPhase is the terminal phase whose plan section gets the
	// final-commit task. Defaults to "commit".
	FinalPhase string `mapstructure:"final_phase"`
}

// Plugin implements plugin.Plugin.
type Plugin struct {
	settings Settings
	logger   *slog.Logger
}

// New creates the autocommit plugin from a raw settings map.
func New(settings map[string]any, logger *slog.Logger) (*Plugin, error) {
	p := &Plugin{logger: logger}
	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	if err := mapstructure.Decode(settings, &p.settings); err != nil {
		return nil, fmt.Errorf("invalid autocommit settings: %w", err)
	}
	if p.settings.Git == "" {
		p.settings.Git = "git"
	}
	if p.settings.FinalPhase == "" {
		p.settings.FinalPhase = "commit"
	}
	return p, nil
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return "autocommit" }

// Priority implements plugin.Plugin. Runs after the tracker so a vetoed
// transition is not checkpointed.
func (p *Plugin) Priority() int { return 20 }

// Enabled reports whether the automation is switched on and git is
// installed. Evaluated once, at registration.
func (p *Plugin) Enabled() bool {
	if !truthy(os.Getenv(EnvToggle)) {
		return false
	}
	if _, err := exec.LookPath(p.settings.Git); err != nil {
		p.logger.Warn("git not found, commit automation disabled")
		return false
	}
	return true
}

// Hooks implements plugin.Plugin.
func (p *Plugin) Hooks() plugin.Hooks {
	return plugin.Hooks{
		BeforePhaseTransition: p.beforePhaseTransition,
		AfterPlanFileCreated:  p.afterPlanFileCreated,
	}
}

// beforePhaseTransition creates a WIP checkpoint commit of the project
// directory. Never returns an error.
func (p *Plugin) beforePhaseTransition(ctx context.Context, hc plugin.HookContext) error {
	if hc.CurrentState == "" {
		return nil // nothing to checkpoint on session start
	}

	if err := p.git(ctx, hc.ProjectPath, "add", "-A"); err != nil {
		p.logger.Warn("checkpoint staging failed", "err", err)
		return nil
	}

	msg := fmt.Sprintf("wip(%s): leaving %s", hc.Workflow, hc.CurrentState)
	if err := p.git(ctx, hc.ProjectPath, "commit", "-m", msg, "--no-verify"); err != nil {
		// Empty worktree is the common case and not worth a warning.
		p.logger.Debug("checkpoint commit skipped", "err", err)
	}
	return nil
}

// afterPlanFileCreated appends the final-commit task to the plan document.
func (p *Plugin) afterPlanFileCreated(ctx context.Context, hc plugin.HookContext, content string) (string, bool, error) {
	var b strings.Builder
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n- [ ] %s phase: squash WIP checkpoints and create the final commit\n",
		p.settings.FinalPhase)
	return b.String(), true, nil
}

func (p *Plugin) git(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, p.settings.Git, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %s: %w (%s)", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

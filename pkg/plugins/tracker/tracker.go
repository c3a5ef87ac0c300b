// Package tracker integrates an external issue-tracker CLI with the
// workflow lifecycle. On session start it creates a tracking epic, before
// every phase transition it blocks on open items for the current phase, and
// it stamps a tracking section into new plan documents.
//
// The plugin degrades to a no-op with a warning when the backing CLI is not
// installed: the engine must stay fully functional without it.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/internal/logging"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/plugin"
)

// EnvToggle activates the plugin when set to a truthy value.
const EnvToggle = "VIBE_TRACKER_ENABLED"

// Settings configure the tracker integration. They are decoded from the
// host's plugin-settings map.
type Settings struct {
	// Command is the tracker CLI binary. Defaults to "backlog".
	Command string `mapstructure:"command"`

	// Project is the tracker-side project key new epics are filed under.
	Project string `mapstructure:"project"`
}

// Plugin implements plugin.Plugin.
type Plugin struct {
	settings Settings
	logger   *slog.Logger
}

// New creates the tracker plugin from a raw settings map.
func New(settings map[string]any, logger *slog.Logger) (*Plugin, error) {
	p := &Plugin{logger: logger}
	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	if err := mapstructure.Decode(settings, &p.settings); err != nil {
		return nil, fmt.Errorf("invalid tracker settings: %w", err)
	}
	if p.settings.Command == "" {
		p.settings.Command = "backlog"
	}
	return p, nil
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return "tracker" }

// Priority implements plugin.Plugin. The tracker runs before content
// decorators so its veto is evaluated first.
func (p *Plugin) Priority() int { return 10 }

// Enabled reports whether the integration is switched on and its CLI is
// actually installed. Evaluated once, at registration.
func (p *Plugin) Enabled() bool {
	if !truthy(os.Getenv(EnvToggle)) {
		return false
	}
	if _, err := exec.LookPath(p.settings.Command); err != nil {
		p.logger.Warn("tracker CLI not found, integration disabled",
			"command", p.settings.Command)
		return false
	}
	return true
}

// Hooks implements plugin.Plugin.
func (p *Plugin) Hooks() plugin.Hooks {
	return plugin.Hooks{
		BeforePhaseTransition: p.beforePhaseTransition,
		AfterStartDevelopment: p.afterStartDevelopment,
		AfterPlanFileCreated:  p.afterPlanFileCreated,
	}
}

type trackerItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// beforePhaseTransition vetoes the transition while the tracker still lists
// open items for the phase being left.
func (p *Plugin) beforePhaseTransition(ctx context.Context, hc plugin.HookContext) error {
	if hc.CurrentState == "" {
		return nil // session start, nothing to check yet
	}

	out, err := p.run(ctx, hc.ProjectPath,
		"task", "list",
		"--conversation", hc.ConversationID,
		"--phase", hc.CurrentState,
		"--status", "open",
		"--json",
	)
	if err != nil {
		// A broken tracker must not brick the workflow; missing data is
		// treated as "nothing open".
		p.logger.Warn("tracker query failed, skipping validation", "err", err)
		return nil
	}

	var items []trackerItem
	if err := json.Unmarshal(out, &items); err != nil {
		p.logger.Warn("tracker returned unparseable output, skipping validation", "err", err)
		return nil
	}
	if len(items) == 0 {
		return nil
	}

	titles := make([]string, len(items))
	for i, item := range items {
		titles[i] = fmt.Sprintf("%s (%s)", item.Title, item.ID)
	}
	return fmt.Errorf("%d open tracker item(s) in phase %q: %s",
		len(items), hc.CurrentState, strings.Join(titles, "; "))
}

// afterStartDevelopment creates the tracking epic and records its ID in a
// mapping file next to the project, keyed by conversation.
func (p *Plugin) afterStartDevelopment(ctx context.Context, hc plugin.HookContext) error {
	args := []string{"epic", "create",
		"--title", fmt.Sprintf("%s: %s", hc.Workflow, hc.ConversationID),
		"--json",
	}
	if p.settings.Project != "" {
		args = append(args, "--project", p.settings.Project)
	}

	out, err := p.run(ctx, hc.ProjectPath, args...)
	if err != nil {
		return fmt.Errorf("failed to create tracking epic: %w", err)
	}

	var epic trackerItem
	if err := json.Unmarshal(out, &epic); err != nil {
		return fmt.Errorf("unparseable epic-create output: %w", err)
	}

	p.logger.Info("tracking epic created",
		"conversation_id", hc.ConversationID, "epic_id", epic.ID)
	return p.saveMapping(hc, epic.ID)
}

// afterPlanFileCreated stamps a tracking section into the plan document.
// The epic ID lives in the mapping file, never parsed back out of the plan.
func (p *Plugin) afterPlanFileCreated(ctx context.Context, hc plugin.HookContext, content string) (string, bool, error) {
	epicID, err := p.loadMapping(hc)
	if err != nil || epicID == "" {
		return "", false, err
	}

	var b strings.Builder
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n## Tracking\n\n")
	fmt.Fprintf(&b, "Epic: %s\n", epicID)
	b.WriteString("Tasks are managed in the tracker, one per phase.\n")
	return b.String(), true, nil
}

func (p *Plugin) run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, p.settings.Command, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s %s: %w (%s)",
			p.settings.Command, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

type mapping struct {
	EpicID string `json:"epic_id"`
}

func (p *Plugin) mappingPath(hc plugin.HookContext) string {
	dir := hc.ProjectPath
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, ".vibe", "tracker-"+hc.ConversationID+".json")
}

func (p *Plugin) saveMapping(hc plugin.HookContext, epicID string) error {
	path := p.mappingPath(hc)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	raw, err := json.Marshal(mapping{EpicID: epicID})
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func (p *Plugin) loadMapping(hc plugin.HookContext) (string, error) {
	raw, err := os.ReadFile(p.mappingPath(hc))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var m mapping
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", err
	}
	return m.EpicID, nil
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

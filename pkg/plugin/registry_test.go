package plugin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"
)

// fakePlugin is a configurable test double.
type fakePlugin struct {
	name     string
	priority int
	enabled  bool
	hooks    Hooks
}

func (p *fakePlugin) Name() string  { return p.name }
func (p *fakePlugin) Priority() int { return p.priority }
func (p *fakePlugin) Enabled() bool { return p.enabled }
func (p *fakePlugin) Hooks() Hooks  { return p.hooks }

func enabled(name string, priority int, hooks Hooks) *fakePlugin {
	return &fakePlugin{name: name, priority: priority, enabled: true, hooks: hooks}
}

func TestNewRegistry_DuplicateName(t *testing.T) {
	_, err := NewRegistry([]Plugin{
		enabled("twin", 1, Hooks{}),
		enabled("twin", 2, Hooks{}),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate plugin name "twin"`)
}

func TestNewRegistry_SkipsDisabled(t *testing.T) {
	r, err := NewRegistry([]Plugin{
		enabled("on", 1, Hooks{}),
		&fakePlugin{name: "off", enabled: false},
	})
	require.NoError(t, err)

	plugins := r.EnabledPlugins()
	require.Len(t, plugins, 1)
	assert.Equal(t, "on", plugins[0].Name())
}

func TestRegistry_DispatchOrder(t *testing.T) {
	var order []string
	record := func(name string) Hooks {
		return Hooks{
			BeforePhaseTransition: func(ctx context.Context, hc HookContext) error {
				order = append(order, name)
				return nil
			},
		}
	}

	r, err := NewRegistry([]Plugin{
		enabled("late", 90, record("late")),
		enabled("early", 10, record("early")),
		enabled("mid-b", 50, record("mid-b")),
		enabled("mid-a", 50, record("mid-a")),
	})
	require.NoError(t, err)

	require.NoError(t, r.BeforePhaseTransition(context.Background(), HookContext{}))
	// Ties keep registration order: mid-b registered before mid-a.
	assert.Equal(t, []string{"early", "mid-b", "mid-a", "late"}, order)
}

func TestRegistry_BeforePhaseTransition_Blocks(t *testing.T) {
	cause := errors.New("plan document is empty")
	var secondRan bool

	r, err := NewRegistry([]Plugin{
		enabled("gate", 1, Hooks{
			BeforePhaseTransition: func(ctx context.Context, hc HookContext) error {
				return cause
			},
		}),
		enabled("after", 2, Hooks{
			BeforePhaseTransition: func(ctx context.Context, hc HookContext) error {
				secondRan = true
				return nil
			},
		}),
	})
	require.NoError(t, err)

	err = r.BeforePhaseTransition(context.Background(), HookContext{})
	var valErr *domain.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "gate", valErr.Plugin)
	assert.ErrorIs(t, err, cause)
	assert.False(t, secondRan, "a veto must short-circuit the dispatch loop")
}

func TestRegistry_AfterStartDevelopment_Advisory(t *testing.T) {
	var laterRan bool

	r, err := NewRegistry([]Plugin{
		enabled("broken", 1, Hooks{
			AfterStartDevelopment: func(ctx context.Context, hc HookContext) error {
				return errors.New("tracker unreachable")
			},
		}),
		enabled("healthy", 2, Hooks{
			AfterStartDevelopment: func(ctx context.Context, hc HookContext) error {
				laterRan = true
				return nil
			},
		}),
	})
	require.NoError(t, err)

	r.AfterStartDevelopment(context.Background(), HookContext{})
	assert.True(t, laterRan, "an advisory failure must not stop later plugins")
}

func TestRegistry_InstructionChain(t *testing.T) {
	r, err := NewRegistry([]Plugin{
		enabled("first", 1, Hooks{
			AfterInstructionsGenerated: func(ctx context.Context, hc HookContext, text string) (string, bool, error) {
				return text + " +first", true, nil
			},
		}),
		enabled("failing", 2, Hooks{
			AfterInstructionsGenerated: func(ctx context.Context, hc HookContext, text string) (string, bool, error) {
				return "garbage", true, errors.New("boom")
			},
		}),
		enabled("unchanged", 3, Hooks{
			AfterInstructionsGenerated: func(ctx context.Context, hc HookContext, text string) (string, bool, error) {
				// Inspect but do not rewrite.
				return "", false, nil
			},
		}),
		enabled("last", 4, Hooks{
			AfterInstructionsGenerated: func(ctx context.Context, hc HookContext, text string) (string, bool, error) {
				return text + " +last", true, nil
			},
		}),
	})
	require.NoError(t, err)

	out := r.AfterInstructionsGenerated(context.Background(), HookContext{}, "base")
	assert.Equal(t, "base +first +last", out,
		"failing plugin skipped, unchanged plugin passes text through")
}

func TestRegistry_PlanChain(t *testing.T) {
	r, err := NewRegistry([]Plugin{
		enabled("stamp", 1, Hooks{
			AfterPlanFileCreated: func(ctx context.Context, hc HookContext, content string) (string, bool, error) {
				return content + "\n## Tracking\n", true, nil
			},
		}),
	})
	require.NoError(t, err)

	out := r.AfterPlanFileCreated(context.Background(), HookContext{}, "# Plan\n")
	assert.Contains(t, out, "## Tracking")
}

func TestRegistry_ChainStopsOnExpiredContext(t *testing.T) {
	var ran bool
	r, err := NewRegistry([]Plugin{
		enabled("never", 1, Hooks{
			AfterInstructionsGenerated: func(ctx context.Context, hc HookContext, text string) (string, bool, error) {
				ran = true
				return text + " mutated", true, nil
			},
		}),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := r.AfterInstructionsGenerated(ctx, HookContext{}, "base")
	assert.Equal(t, "base", out, "expired deadline keeps the accumulated text")
	assert.False(t, ran)
}

func TestRegistry_HookTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	r, err := NewRegistry([]Plugin{
		enabled("hung", 1, Hooks{
			BeforePhaseTransition: func(ctx context.Context, hc HookContext) error {
				<-block // ignores its context on purpose
				return nil
			},
		}),
	}, WithHookTimeout(20*time.Millisecond))
	require.NoError(t, err)

	err = r.BeforePhaseTransition(context.Background(), HookContext{})
	var valErr *domain.ValidationError
	require.ErrorAs(t, err, &valErr, "a validation hook timeout fails closed")
	assert.Contains(t, err.Error(), "timed out")
}

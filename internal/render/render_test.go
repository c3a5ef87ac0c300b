package render

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/plugin"
)

func TestSubstitute(t *testing.T) {
	subs := map[string]string{
		"WORKFLOW":        "development",
		"CONVERSATION_ID": "c1",
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no tokens", "plain text", "plain text"},
		{"single token", "workflow: $WORKFLOW", "workflow: development"},
		{"multiple tokens", "$WORKFLOW/$CONVERSATION_ID", "development/c1"},
		{"unknown token left verbatim", "path: $UNKNOWN_VAR", "path: $UNKNOWN_VAR"},
		{"mixed known and unknown", "$WORKFLOW at $PLACE", "development at $PLACE"},
		{"bare dollar untouched", "cost is $5", "cost is $5"},
		{"token at end", "id=$CONVERSATION_ID", "id=c1"},
		{"underscored name", "$CONVERSATION_ID", "c1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Substitute(tt.in, subs))
		})
	}
}

func TestSubstitute_EmptyMap(t *testing.T) {
	assert.Equal(t, "keep $THIS", Substitute("keep $THIS", nil))
}

type decoratorPlugin struct {
	name   string
	suffix string
}

func (p *decoratorPlugin) Name() string  { return p.name }
func (p *decoratorPlugin) Priority() int { return 0 }
func (p *decoratorPlugin) Enabled() bool { return true }

func (p *decoratorPlugin) Hooks() plugin.Hooks {
	return plugin.Hooks{
		AfterInstructionsGenerated: func(ctx context.Context, hc plugin.HookContext, text string) (string, bool, error) {
			return text + p.suffix, true, nil
		},
	}
}

func TestRenderer_Render(t *testing.T) {
	registry, err := plugin.NewRegistry([]plugin.Plugin{
		&decoratorPlugin{name: "deco", suffix: "\n\n> decorated"},
	})
	require.NoError(t, err)

	r := New(registry)
	out := r.Render(context.Background(), plugin.HookContext{}, "do $THING", map[string]string{"THING": "the work"})

	assert.True(t, strings.HasPrefix(out, "do the work"))
	assert.Contains(t, out, "> decorated")
}

func TestRenderer_Render_NoPlugins(t *testing.T) {
	registry, err := plugin.NewRegistry(nil)
	require.NoError(t, err)

	r := New(registry)
	out := r.Render(context.Background(), plugin.HookContext{}, "$A and $B", map[string]string{"A": "x"})
	assert.Equal(t, "x and $B", out)
}

// Package render produces the final instruction text for a phase.
//
// Rendering substitutes $VARIABLE tokens and then lets plugins decorate the
// result through the afterInstructionsGenerated chain. Decoration is
// best-effort: rendering never fails because a plugin failed.
package render

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/internal/logging"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/plugin"
)

// variablePattern matches $VARIABLE tokens.
var variablePattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// Renderer performs variable substitution and plugin decoration.
type Renderer struct {
	plugins *plugin.Registry
	logger  *slog.Logger
}

// Option configures the Renderer.
type Option func(*Renderer)

// WithLogger sets the renderer's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// New creates a Renderer dispatching decoration through the given registry.
func New(registry *plugin.Registry, opts ...Option) *Renderer {
	r := &Renderer{
		plugins: registry,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render substitutes variables into text and runs the instruction-decoration
// chain. Unresolved $VARIABLE tokens are left verbatim: a missing
// substitution should be visible to the reader, never silently dropped.
func (r *Renderer) Render(ctx context.Context, hc plugin.HookContext, text string, substitutions map[string]string) string {
	out := Substitute(text, substitutions)
	return r.plugins.AfterInstructionsGenerated(ctx, hc, out)
}

// Substitute replaces $VARIABLE tokens from the map, leaving unknown tokens
// untouched.
func Substitute(text string, substitutions map[string]string) string {
	if len(substitutions) == 0 || !strings.Contains(text, "$") {
		return text
	}
	return variablePattern.ReplaceAllStringFunc(text, func(token string) string {
		if v, ok := substitutions[token[1:]]; ok {
			return v
		}
		return token
	})
}

package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/internal/logging"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"
)

// DefaultHookTimeout bounds a single plugin hook invocation. A hook that
// shells out to an external tool must not stall an advance indefinitely.
const DefaultHookTimeout = 30 * time.Second

type entry struct {
	plugin Plugin
	hooks  Hooks
	seq    int
}

// Registry holds the enabled plugins in deterministic dispatch order.
// The plugin list is fixed before request processing begins; Register is not
// safe to call concurrently with dispatch.
type Registry struct {
	entries     []entry
	names       map[string]struct{}
	hookTimeout time.Duration
	logger      *slog.Logger
}

// RegistryOption configures the Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for advisory-failure reporting.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithHookTimeout bounds each individual hook invocation.
func WithHookTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.hookTimeout = d
	}
}

// NewRegistry creates a registry and registers the given plugins in order.
// Construction fails fast on duplicate plugin names.
func NewRegistry(plugins []Plugin, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		names:       make(map[string]struct{}),
		hookTimeout: DefaultHookTimeout,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, p := range plugins {
		if err := r.register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// register stores the plugin if it reports itself enabled. Enabled() and
// Hooks() are evaluated exactly once, here.
func (r *Registry) register(p Plugin) error {
	name := p.Name()
	if name == "" {
		return fmt.Errorf("plugin with empty name")
	}
	if _, dup := r.names[name]; dup {
		return fmt.Errorf("duplicate plugin name %q", name)
	}
	r.names[name] = struct{}{}

	if !p.Enabled() {
		r.logger.Debug("plugin disabled, skipping", "plugin", name)
		return nil
	}

	r.entries = append(r.entries, entry{plugin: p, hooks: p.Hooks(), seq: len(r.entries)})
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].plugin.Priority() < r.entries[j].plugin.Priority()
	})
	r.logger.Debug("plugin registered", "plugin", name, "priority", p.Priority())
	return nil
}

// EnabledPlugins returns the enabled plugins in dispatch order.
func (r *Registry) EnabledPlugins() []Plugin {
	out := make([]Plugin, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.plugin
	}
	return out
}

// BeforePhaseTransition dispatches the validation hook. The first plugin
// error aborts the loop and is returned wrapped in *domain.ValidationError,
// blocking the transition. A hook timeout fails closed.
func (r *Registry) BeforePhaseTransition(ctx context.Context, hc HookContext) error {
	for _, e := range r.entries {
		if e.hooks.BeforePhaseTransition == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return &domain.ValidationError{Plugin: e.plugin.Name(), Err: fmt.Errorf("hook deadline exceeded: %w", err)}
		}
		err := r.callBounded(ctx, func(ctx context.Context) error {
			return e.hooks.BeforePhaseTransition(ctx, hc)
		})
		if err != nil {
			return &domain.ValidationError{Plugin: e.plugin.Name(), Err: err}
		}
	}
	return nil
}

// AfterStartDevelopment dispatches the session-start side-effect hook.
// Errors are logged per plugin; the loop always completes and never reports
// failure to the caller.
func (r *Registry) AfterStartDevelopment(ctx context.Context, hc HookContext) {
	for _, e := range r.entries {
		if e.hooks.AfterStartDevelopment == nil {
			continue
		}
		if ctx.Err() != nil {
			r.logger.Warn("deadline expired, skipping remaining afterStartDevelopment hooks",
				"next_plugin", e.plugin.Name())
			return
		}
		err := r.callBounded(ctx, func(ctx context.Context) error {
			return e.hooks.AfterStartDevelopment(ctx, hc)
		})
		if err != nil {
			r.logger.Warn("afterStartDevelopment hook failed",
				"plugin", e.plugin.Name(), "err", err)
		}
	}
}

// AfterInstructionsGenerated runs the instruction-decoration chain. Each
// plugin receives the accumulated text; a failing plugin is skipped and the
// last good text carries forward. On deadline expiry the chain stops early
// with whatever was accumulated; that is early termination, not an error.
func (r *Registry) AfterInstructionsGenerated(ctx context.Context, hc HookContext, text string) string {
	return r.runChain(ctx, hc, text, "afterInstructionsGenerated", func(e entry) chainFunc {
		if e.hooks.AfterInstructionsGenerated == nil {
			return nil
		}
		return e.hooks.AfterInstructionsGenerated
	})
}

// AfterPlanFileCreated runs the plan-document decoration chain with the same
// semantics as AfterInstructionsGenerated.
func (r *Registry) AfterPlanFileCreated(ctx context.Context, hc HookContext, content string) string {
	return r.runChain(ctx, hc, content, "afterPlanFileCreated", func(e entry) chainFunc {
		if e.hooks.AfterPlanFileCreated == nil {
			return nil
		}
		return e.hooks.AfterPlanFileCreated
	})
}

type chainFunc func(ctx context.Context, hc HookContext, text string) (string, bool, error)

func (r *Registry) runChain(ctx context.Context, hc HookContext, text, hook string, pick func(entry) chainFunc) string {
	for _, e := range r.entries {
		fn := pick(e)
		if fn == nil {
			continue
		}
		if ctx.Err() != nil {
			r.logger.Warn("deadline expired, stopping hook chain early",
				"hook", hook, "next_plugin", e.plugin.Name())
			return text
		}

		var (
			next    string
			changed bool
		)
		err := r.callBounded(ctx, func(ctx context.Context) error {
			var hookErr error
			next, changed, hookErr = fn(ctx, hc, text)
			return hookErr
		})
		if err != nil {
			r.logger.Warn("content hook failed, keeping previous text",
				"hook", hook, "plugin", e.plugin.Name(), "err", err)
			continue
		}
		if changed {
			text = next
		}
	}
	return text
}

// callBounded invokes fn under the registry's per-hook timeout. The hook runs
// in its own goroutine so a callback that ignores its context (e.g. a hung
// subprocess wait) still cannot stall the dispatcher past the deadline.
func (r *Registry) callBounded(ctx context.Context, fn func(context.Context) error) error {
	hookCtx, cancel := context.WithTimeout(ctx, r.hookTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(hookCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-hookCtx.Done():
		return fmt.Errorf("hook timed out after %s: %w", r.hookTimeout, hookCtx.Err())
	}
}

package vibe

import (
	"context"
	"log/slog"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/internal/logging"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/adapters/memory"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/adapters/workflowdir"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/plugin"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/ports"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/session"
)

// Engine is the high-level entry point for the library. It wraps the
// session manager and provides a simplified API for embedding hosts; the
// MCP and HTTP adapters are thin layers over the same surface.
type Engine struct {
	manager  *session.Manager
	registry *plugin.Registry

	source      ports.WorkflowSource
	store       ports.StateStore
	plans       ports.PlanStore
	locker      ports.DistributedLocker
	plugins     []plugin.Plugin
	projectPath string
	logger      *slog.Logger
	sessionOpts []session.Option
}

// Option configures the Engine.
type Option func(*Engine)

// WithWorkflowSource injects a custom definition source. The default serves
// the bundled workflows.
func WithWorkflowSource(source ports.WorkflowSource) Option {
	return func(e *Engine) {
		e.source = source
	}
}

// WithStateStore injects the conversation store. The default is in-memory.
func WithStateStore(store ports.StateStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithPlanStore enables plan-document creation on session start.
func WithPlanStore(plans ports.PlanStore) Option {
	return func(e *Engine) {
		e.plans = plans
	}
}

// WithLocker enables distributed locking for multi-replica deployments.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithPlugins registers lifecycle plugins. Order matters only for
// equal-priority plugins.
func WithPlugins(plugins ...plugin.Plugin) Option {
	return func(e *Engine) {
		e.plugins = append(e.plugins, plugins...)
	}
}

// WithProjectPath records the project directory handed to plugin hooks.
func WithProjectPath(path string) Option {
	return func(e *Engine) {
		e.projectPath = path
	}
}

// WithLogger sets a structured logger for all components.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithSessionOptions forwards extra options to the session manager.
func WithSessionOptions(opts ...session.Option) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, opts...)
	}
}

// New initializes the engine. Construction fails fast on plugin
// misconfiguration (duplicate names); everything else is lazy.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.source == nil {
		e.source = workflowdir.New("")
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}

	registry, err := plugin.NewRegistry(e.plugins, plugin.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	e.registry = registry

	sessionOpts := []session.Option{
		session.WithLogger(e.logger),
		session.WithProjectPath(e.projectPath),
	}
	if e.plans != nil {
		sessionOpts = append(sessionOpts, session.WithPlanStore(e.plans))
	}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}
	sessionOpts = append(sessionOpts, e.sessionOpts...)

	e.manager = session.NewManager(e.source, e.store, registry, sessionOpts...)
	return e, nil
}

// Advance moves a conversation one transition forward, creating it when the
// start trigger is used on an unknown conversation ID.
func (e *Engine) Advance(ctx context.Context, req session.AdvanceRequest) (session.AdvanceResult, error) {
	return e.manager.Advance(ctx, req)
}

// WhatsNext re-renders the current phase's instructions without advancing.
func (e *Engine) WhatsNext(ctx context.Context, conversationID, role string, substitutions map[string]string) (session.AdvanceResult, error) {
	return e.manager.WhatsNext(ctx, conversationID, role, substitutions)
}

// Conversation returns the persisted state of a conversation.
func (e *Engine) Conversation(ctx context.Context, conversationID string) (domain.ConversationState, error) {
	return e.manager.Get(ctx, conversationID)
}

// Workflows lists the available workflow names.
func (e *Engine) Workflows() ([]string, error) {
	return e.manager.Workflows()
}

// Workflow loads and validates a definition.
func (e *Engine) Workflow(name string) (domain.WorkflowDefinition, error) {
	return e.manager.Workflow(name)
}

// Plugins returns the enabled plugins in dispatch order.
func (e *Engine) Plugins() []plugin.Plugin {
	return e.registry.EnabledPlugins()
}

package plugin

import "context"

// HookContext is the read-only snapshot passed to every hook. It carries no
// reference to any mutable engine component: plugins can only return values
// that the registry feeds back into the pipeline, or error to block.
type HookContext struct {
	ConversationID string
	Workflow       string
	CurrentState   string

	// TargetState is the resolved destination of the in-progress transition.
	// Empty for hooks fired outside a transition (e.g. a pure re-render).
	TargetState string

	ProjectPath string
	ActorRole   string
}

// Hooks is the set of optional lifecycle callbacks a plugin may implement.
// A nil field means the plugin does not participate in that hook. The fields
// are statically typed per hook signature, so adding a hook is a
// compile-checked change, never a runtime discovery.
type Hooks struct {
	// BeforePhaseTransition runs before a transition is committed. Returning
	// an error vetoes the transition; the error is surfaced verbatim to the
	// caller (validation policy).
	BeforePhaseTransition func(ctx context.Context, hc HookContext) error

	// AfterStartDevelopment runs once when a conversation is created at the
	// workflow's initial state, after the response state is persisted.
	// Errors are logged and swallowed (advisory policy).
	AfterStartDevelopment func(ctx context.Context, hc HookContext) error

	// AfterPlanFileCreated transforms the initial plan-document content.
	// Return the replacement text and changed=true to substitute it for the
	// next plugin in the chain; changed=false passes the input through.
	// Errors are logged and the last good text is kept (advisory policy).
	AfterPlanFileCreated func(ctx context.Context, hc HookContext, content string) (string, bool, error)

	// AfterInstructionsGenerated transforms rendered phase instructions.
	// Same chaining and failure semantics as AfterPlanFileCreated.
	AfterInstructionsGenerated func(ctx context.Context, hc HookContext, text string) (string, bool, error)
}

// Plugin is a stateless descriptor of one extension.
type Plugin interface {
	// Name identifies the plugin. Names must be unique within a registry.
	Name() string

	// Priority orders dispatch: lower runs first. Ties keep registration
	// order.
	Priority() int

	// Enabled is evaluated once, at registration time. It typically reads
	// configuration or probes the environment (e.g. a backing CLI on PATH).
	Enabled() bool

	// Hooks returns the plugin's callbacks. Called once at registration.
	Hooks() Hooks
}

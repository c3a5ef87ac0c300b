package ports

import "context"

// PlanStore persists development-plan documents, one per conversation.
// The engine writes plan content through this port after running the
// afterPlanFileCreated plugin chain; it never reads identifiers back out of
// the document text.
type PlanStore interface {
	// Create writes the initial plan document for a conversation and
	// returns its location (a path or URI, backend dependent). Creating a
	// plan that already exists overwrites it.
	Create(ctx context.Context, conversationID string, content string) (string, error)

	// Exists reports whether a plan document already exists.
	Exists(ctx context.Context, conversationID string) (bool, error)
}

package ports

import (
	"context"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"
)

// StateStore persists conversation state. The engine is agnostic to the
// backing (SQL, file, memory, redis); implementations must return isolated
// copies so callers cannot mutate stored state through shared maps.
type StateStore interface {
	// Get retrieves the state for a conversation. The boolean reports
	// existence; a missing conversation is not an error.
	Get(ctx context.Context, conversationID string) (domain.ConversationState, bool, error)

	// Put writes the state as a single atomic write, overwriting any
	// previous snapshot for the same conversation.
	Put(ctx context.Context, state domain.ConversationState) error
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"
)

// Store implements ports.StateStore on Redis. Each conversation is one key
// holding the JSON-encoded snapshot; SET is atomic, which satisfies the
// single-atomic-write persistence contract.
type Store struct {
	client *backend.Client
	prefix string
}

// NewStore creates a Redis state store. Keys are namespaced with the prefix.
func NewStore(client *backend.Client, prefix string) *Store {
	return &Store{
		client: client,
		prefix: prefix,
	}
}

// Get fetches and decodes the snapshot.
func (s *Store) Get(ctx context.Context, conversationID string) (domain.ConversationState, bool, error) {
	raw, err := s.client.Get(ctx, s.key(conversationID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return domain.ConversationState{}, false, nil
	}
	if err != nil {
		return domain.ConversationState{}, false, fmt.Errorf("redis get failed: %w", err)
	}

	var state domain.ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return domain.ConversationState{}, false, fmt.Errorf("corrupt state for %q: %w", conversationID, err)
	}
	return state, true, nil
}

// Put encodes and writes the snapshot.
func (s *Store) Put(ctx context.Context, state domain.ConversationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := s.client.Set(ctx, s.key(state.ConversationID), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *Store) key(conversationID string) string {
	return s.prefix + "conversation:" + conversationID
}

// Package memory provides in-memory implementations of the engine's ports,
// used for tests and embedded hosts that do not need durability.
package memory

import (
	"context"
	"sync"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"
)

// Store implements ports.StateStore in memory. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string]domain.ConversationState
}

// NewStore creates an empty in-memory state store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.ConversationState),
	}
}

// Get returns a copy of the stored state, so callers cannot mutate the
// store through shared maps.
func (s *Store) Get(ctx context.Context, conversationID string) (domain.ConversationState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[conversationID]
	if !ok {
		return domain.ConversationState{}, false, nil
	}
	return state.Clone(), true, nil
}

// Put stores a copy of the state.
func (s *Store) Put(ctx context.Context, state domain.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[state.ConversationID] = state.Clone()
	return nil
}

// Package file persists conversation state and plan documents on disk,
// one file per conversation. Writes go through a temp file and rename so a
// crash mid-write never leaves a torn snapshot.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"
)

// Store implements ports.StateStore on the local filesystem.
type Store struct {
	dir string
}

// NewStore creates a file store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Get reads the conversation snapshot from disk.
func (s *Store) Get(ctx context.Context, conversationID string) (domain.ConversationState, bool, error) {
	raw, err := os.ReadFile(s.path(conversationID))
	if os.IsNotExist(err) {
		return domain.ConversationState{}, false, nil
	}
	if err != nil {
		return domain.ConversationState{}, false, fmt.Errorf("failed to read state file: %w", err)
	}

	var state domain.ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return domain.ConversationState{}, false, fmt.Errorf("corrupt state file for %q: %w", conversationID, err)
	}
	return state, true, nil
}

// Put writes the snapshot atomically (temp file + rename).
func (s *Store) Put(ctx context.Context, state domain.ConversationState) error {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	target := s.path(state.ConversationID)
	tmp, err := os.CreateTemp(s.dir, ".state-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to commit state file: %w", err)
	}
	return nil
}

func (s *Store) path(conversationID string) string {
	return filepath.Join(s.dir, sanitize(conversationID)+".json")
}

// sanitize keeps conversation IDs filesystem-safe without storing a separate
// mapping. IDs are UUIDs in practice; this only defends against hosts that
// pass free-form strings.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, id)
}

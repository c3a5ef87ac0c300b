package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// PlanStore implements ports.PlanStore as markdown files in a directory.
type PlanStore struct {
	dir string
}

// NewPlanStore creates a plan store rooted at dir, creating it if needed.
func NewPlanStore(dir string) (*PlanStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create plan directory: %w", err)
	}
	return &PlanStore{dir: dir}, nil
}

// Create writes the plan document and returns its path.
func (p *PlanStore) Create(ctx context.Context, conversationID string, content string) (string, error) {
	path := p.path(conversationID)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write plan document: %w", err)
	}
	return path, nil
}

// Exists reports whether a plan document is already on disk.
func (p *PlanStore) Exists(ctx context.Context, conversationID string) (bool, error) {
	_, err := os.Stat(p.path(conversationID))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *PlanStore) path(conversationID string) string {
	return filepath.Join(p.dir, "plan-"+sanitize(conversationID)+".md")
}

package memory

import (
	"fmt"
	"sort"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"
)

// Source implements ports.WorkflowSource over a fixed set of definitions.
type Source struct {
	defs map[string]domain.WorkflowDefinition
}

// NewSource creates a source serving the given definitions.
func NewSource(defs ...domain.WorkflowDefinition) *Source {
	s := &Source{defs: make(map[string]domain.WorkflowDefinition, len(defs))}
	for _, d := range defs {
		s.defs[d.Name] = d
	}
	return s
}

// LoadWorkflow returns the definition for the given name.
func (s *Source) LoadWorkflow(name string) (domain.WorkflowDefinition, error) {
	def, ok := s.defs[name]
	if !ok {
		return domain.WorkflowDefinition{}, fmt.Errorf("%w: %s", domain.ErrWorkflowNotFound, name)
	}
	return def, nil
}

// ListWorkflows returns the known workflow names, sorted.
func (s *Source) ListWorkflows() ([]string, error) {
	names := make([]string, 0, len(s.defs))
	for name := range s.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

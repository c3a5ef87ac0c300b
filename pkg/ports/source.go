package ports

import "github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"

// WorkflowSource provides already-parsed workflow definitions. File and YAML
// parsing mechanics live behind this boundary; the engine only consumes
// validated definitions.
type WorkflowSource interface {
	// LoadWorkflow returns the definition for the given name.
	// Returns domain.ErrWorkflowNotFound when the name is unknown.
	LoadWorkflow(name string) (domain.WorkflowDefinition, error)

	// ListWorkflows returns the names of all available workflows.
	ListWorkflows() ([]string, error)
}

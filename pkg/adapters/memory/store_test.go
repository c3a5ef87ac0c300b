package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/ports"
)

func TestStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, NewStore())
}

func TestSource(t *testing.T) {
	src := NewSource(
		domain.WorkflowDefinition{Name: "b"},
		domain.WorkflowDefinition{Name: "a"},
	)

	names, err := src.ListWorkflows()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	def, err := src.LoadWorkflow("a")
	require.NoError(t, err)
	assert.Equal(t, "a", def.Name)

	_, err = src.LoadWorkflow("missing")
	assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)
}

package workflowdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"
)

func TestBundledWorkflows(t *testing.T) {
	src := New("")

	names, err := src.ListWorkflows()
	require.NoError(t, err)
	assert.Contains(t, names, "development")
	assert.Contains(t, names, "paired")

	// Every bundled workflow must load and validate.
	for _, name := range names {
		def, err := src.LoadWorkflow(name)
		require.NoError(t, err, "bundled workflow %q", name)
		assert.Equal(t, name, def.Name)
		assert.NoError(t, def.Validate())
	}
}

func TestBundledDevelopment(t *testing.T) {
	def, err := New("").LoadWorkflow("development")
	require.NoError(t, err)

	assert.Equal(t, "explore", def.InitialState)
	assert.Len(t, def.States, 4)
	assert.Contains(t, def.States["explore"].DefaultInstructions, "$WORKFLOW")
	assert.Equal(t, "plan", def.States["explore"].Transitions[0].To)
	assert.Empty(t, def.States["commit"].Transitions, "commit is terminal")
}

func TestBundledPaired_RoleScoped(t *testing.T) {
	def, err := New("").LoadWorkflow("paired")
	require.NoError(t, err)

	assert.Equal(t, []string{"architect", "developer"}, def.Roles())

	review := def.States["review"]
	var perspectives []domain.ReviewPerspective
	for _, tr := range review.Transitions {
		if tr.Trigger == "review_failed" {
			perspectives = tr.ReviewPerspectives
		}
	}
	require.Len(t, perspectives, 1)
	assert.Equal(t, "developer", perspectives[0].Role)
}

func TestDiskShadowsBundled(t *testing.T) {
	dir := t.TempDir()
	custom := `
name: development
initial_state: single
states:
  single:
    default_instructions: Just do it.
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "development.yaml"), []byte(custom), 0o644))

	src := New(dir)
	def, err := src.LoadWorkflow("development")
	require.NoError(t, err)
	assert.Equal(t, "single", def.InitialState, "on-disk definition shadows the bundled one")

	// Other bundled workflows stay reachable.
	_, err = src.LoadWorkflow("paired")
	assert.NoError(t, err)
}

func TestListWorkflows_MergesDiskAndBundled(t *testing.T) {
	dir := t.TempDir()
	custom := `
name: hotfix
initial_state: fix
states:
  fix:
    default_instructions: Fix it.
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hotfix.yaml"), []byte(custom), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	names, err := New(dir).ListWorkflows()
	require.NoError(t, err)
	assert.Contains(t, names, "hotfix")
	assert.Contains(t, names, "development")
	assert.NotContains(t, names, "notes")
}

func TestLoadWorkflow_Unknown(t *testing.T) {
	_, err := New("").LoadWorkflow("nope")
	assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)
}

func TestParse(t *testing.T) {
	t.Run("state name filled from map key", func(t *testing.T) {
		def, err := Parse([]byte(`
name: w
initial_state: a
states:
  a:
    default_instructions: x
`))
		require.NoError(t, err)
		assert.Equal(t, "a", def.States["a"].Name)
	})

	t.Run("state key and name conflict", func(t *testing.T) {
		_, err := Parse([]byte(`
name: w
initial_state: a
states:
  a:
    name: b
    default_instructions: x
`))
		var defErr *domain.DefinitionError
		require.ErrorAs(t, err, &defErr)
		assert.Contains(t, err.Error(), "conflicts with name")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Parse([]byte("{not yaml"))
		var defErr *domain.DefinitionError
		require.ErrorAs(t, err, &defErr)
	})

	t.Run("validation failure surfaces", func(t *testing.T) {
		_, err := Parse([]byte(`
name: w
initial_state: missing
states:
  a:
    default_instructions: x
`))
		var defErr *domain.DefinitionError
		require.ErrorAs(t, err, &defErr)
		assert.Contains(t, err.Error(), "does not exist")
	})
}

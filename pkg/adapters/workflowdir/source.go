// Package workflowdir loads workflow definitions from YAML files in a
// directory, falling back to the bundled defaults for names not present on
// disk. A host project typically keeps custom workflows under
// .vibe/workflows/.
package workflowdir

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"
)

//go:embed workflows/*.yaml
var bundled embed.FS

// Source implements ports.WorkflowSource over a directory of YAML files.
type Source struct {
	dir string
}

// New creates a source reading from dir. An empty dir serves only the
// bundled workflows.
func New(dir string) *Source {
	return &Source{dir: dir}
}

// LoadWorkflow parses and validates the named definition. Files on disk
// shadow bundled workflows of the same name.
func (s *Source) LoadWorkflow(name string) (domain.WorkflowDefinition, error) {
	raw, err := s.read(name)
	if err != nil {
		return domain.WorkflowDefinition{}, err
	}
	return Parse(raw)
}

func (s *Source) read(name string) ([]byte, error) {
	if s.dir != "" {
		raw, err := os.ReadFile(filepath.Join(s.dir, name+".yaml"))
		if err == nil {
			return raw, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read workflow file: %w", err)
		}
	}

	raw, err := bundled.ReadFile("workflows/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrWorkflowNotFound, name)
	}
	return raw, nil
}

// ListWorkflows returns the union of on-disk and bundled workflow names.
func (s *Source) ListWorkflows() ([]string, error) {
	set := make(map[string]struct{})

	entries, err := bundled.ReadDir("workflows")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		set[strings.TrimSuffix(e.Name(), ".yaml")] = struct{}{}
	}

	if s.dir != "" {
		files, err := os.ReadDir(s.dir)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read workflow directory: %w", err)
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
				continue
			}
			set[strings.TrimSuffix(f.Name(), ".yaml")] = struct{}{}
		}
	}

	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// Parse decodes a YAML workflow definition, fills in state names from their
// map keys, and validates the result.
func Parse(raw []byte) (domain.WorkflowDefinition, error) {
	var def domain.WorkflowDefinition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return domain.WorkflowDefinition{}, &domain.DefinitionError{
			Workflow: def.Name,
			Reason:   fmt.Sprintf("invalid YAML: %v", err),
		}
	}

	for key, state := range def.States {
		if state.Name == "" {
			state.Name = key
			def.States[key] = state
		} else if state.Name != key {
			return domain.WorkflowDefinition{}, &domain.DefinitionError{
				Workflow: def.Name,
				Reason:   fmt.Sprintf("state key %q conflicts with name %q", key, state.Name),
			}
		}
	}

	if err := def.Validate(); err != nil {
		return domain.WorkflowDefinition{}, err
	}
	return def, nil
}

package domain

import (
	"fmt"
	"sort"
)

// WorkflowDefinition is a named finite state machine of development phases.
// It is immutable after loading; request-processing code only reads it, so a
// single definition is safe for concurrent use across conversations.
type WorkflowDefinition struct {
	Name         string           `json:"name" yaml:"name"`
	Description  string           `json:"description,omitempty" yaml:"description,omitempty"`
	InitialState string           `json:"initial_state" yaml:"initial_state"`
	States       map[string]State `json:"states" yaml:"states"`
}

// State represents a single development phase.
type State struct {
	Name string `json:"name" yaml:"name"`

	// EntranceCriteria is an informational checklist shown to the agent when
	// entering the phase. It is never machine-evaluated.
	EntranceCriteria []string `json:"entrance_criteria,omitempty" yaml:"entrance_criteria,omitempty"`

	// DefaultInstructions is the instruction text for this phase. It may
	// contain $VARIABLE tokens resolved at render time.
	DefaultInstructions string `json:"default_instructions" yaml:"default_instructions"`

	Transitions []Transition `json:"transitions,omitempty" yaml:"transitions,omitempty"`
}

// Transition defines a trigger-named edge between two states.
type Transition struct {
	Trigger string `json:"trigger" yaml:"trigger"`
	To      string `json:"to" yaml:"to"`

	// InstructionsOverride replaces the target state's default instructions
	// for this specific transition. Empty means "use the target's defaults".
	InstructionsOverride string `json:"instructions_override,omitempty" yaml:"instructions_override,omitempty"`

	// ReasonTemplate explains why this transition was taken. Supports the
	// same $VARIABLE substitution as instructions.
	ReasonTemplate string `json:"reason_template,omitempty" yaml:"reason_template,omitempty"`

	// Role scopes visibility: when set, only an actor with a matching role
	// sees and may take this transition. Empty means visible to all actors.
	Role string `json:"role,omitempty" yaml:"role,omitempty"`

	// ReviewPerspectives are optional secondary-review prompts attached to
	// the transition. They never change state.
	ReviewPerspectives []ReviewPerspective `json:"review_perspectives,omitempty" yaml:"review_perspectives,omitempty"`
}

// ReviewPerspective asks a specific role to review the work of a transition.
type ReviewPerspective struct {
	Role           string `json:"role" yaml:"role"`
	PromptTemplate string `json:"prompt_template" yaml:"prompt_template"`
}

// VisibleTo reports whether an actor with the given role may take this
// transition. An empty transition role means visible to everyone.
func (t Transition) VisibleTo(role string) bool {
	return t.Role == "" || t.Role == role
}

// Roles returns the set of actor roles declared anywhere in the definition,
// sorted for deterministic iteration.
func (d *WorkflowDefinition) Roles() []string {
	set := make(map[string]struct{})
	for _, s := range d.States {
		for _, t := range s.Transitions {
			if t.Role != "" {
				set[t.Role] = struct{}{}
			}
		}
	}
	roles := make([]string, 0, len(set))
	for r := range set {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}

// Validate checks the structural invariants of the definition. A violation is
// a workflow-authoring defect, reported as a *DefinitionError so callers can
// distinguish it from runtime transition failures.
func (d *WorkflowDefinition) Validate() error {
	if d.Name == "" {
		return &DefinitionError{Workflow: d.Name, Reason: "workflow name is required"}
	}
	if len(d.States) == 0 {
		return &DefinitionError{Workflow: d.Name, Reason: "workflow has no states"}
	}
	if _, ok := d.States[d.InitialState]; !ok {
		return &DefinitionError{
			Workflow: d.Name,
			Reason:   fmt.Sprintf("initial state %q does not exist", d.InitialState),
		}
	}

	for name, state := range d.States {
		seen := make(map[string]struct{})
		for _, t := range state.Transitions {
			if t.Trigger == "" {
				return &DefinitionError{
					Workflow: d.Name,
					Reason:   fmt.Sprintf("state %q has a transition without a trigger", name),
				}
			}
			if _, ok := d.States[t.To]; !ok {
				return &DefinitionError{
					Workflow: d.Name,
					Reason:   fmt.Sprintf("state %q transition %q targets unknown state %q", name, t.Trigger, t.To),
				}
			}
			// A duplicate (trigger, role) pair can never be resolved
			// unambiguously, so reject it at load time.
			key := t.Trigger + "\x00" + t.Role
			if _, dup := seen[key]; dup {
				return &DefinitionError{
					Workflow: d.Name,
					Reason:   fmt.Sprintf("state %q declares trigger %q twice for role %q", name, t.Trigger, displayRole(t.Role)),
				}
			}
			seen[key] = struct{}{}
		}
	}
	return nil
}

func displayRole(role string) string {
	if role == "" {
		return "any"
	}
	return role
}

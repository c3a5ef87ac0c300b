// Package engine implements the pure transition-resolution core.
//
// Resolution is a function over (definition, state, trigger, role) with no
// side effects: the same inputs always yield the same outcome absent a
// definition change.
package engine

import (
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"
)

// Resolution is the outcome of a successful transition lookup.
type Resolution struct {
	Transition domain.Transition
	From       domain.State
	To         domain.State

	// Instructions is the effective base text for the target phase: the
	// transition's override when present, else the target's defaults.
	// Variable substitution and plugin decoration happen later, in the
	// renderer.
	Instructions string
}

// Resolve computes the target state for a trigger requested by an actor with
// the given role. It returns:
//
//   - *domain.UnknownStateError when `from` is not in the definition (caller bug),
//   - *domain.NoSuchTransitionError naming the legal triggers for that role,
//   - *domain.AmbiguousTransitionError when the definition matches more than
//     one transition for the same trigger and role (authoring defect).
func Resolve(def domain.WorkflowDefinition, from, trigger, role string) (Resolution, error) {
	state, ok := def.States[from]
	if !ok {
		return Resolution{}, &domain.UnknownStateError{Workflow: def.Name, State: from}
	}

	var matches []domain.Transition
	for _, t := range state.Transitions {
		if t.Trigger == trigger && t.VisibleTo(role) {
			matches = append(matches, t)
		}
	}

	switch len(matches) {
	case 0:
		return Resolution{}, &domain.NoSuchTransitionError{
			State:     from,
			Trigger:   trigger,
			Role:      role,
			Available: Triggers(state, role),
		}
	case 1:
		// fall through
	default:
		targets := make([]string, len(matches))
		for i, m := range matches {
			targets[i] = m.To
		}
		return Resolution{}, &domain.AmbiguousTransitionError{
			State:   from,
			Trigger: trigger,
			Role:    role,
			Targets: targets,
		}
	}

	match := matches[0]
	target, ok := def.States[match.To]
	if !ok {
		// Validate() rejects dangling targets at load time; reaching this
		// means the definition was mutated after load.
		return Resolution{}, &domain.UnknownStateError{Workflow: def.Name, State: match.To}
	}

	instructions := target.DefaultInstructions
	if match.InstructionsOverride != "" {
		instructions = match.InstructionsOverride
	}

	return Resolution{
		Transition:   match,
		From:         state,
		To:           target,
		Instructions: instructions,
	}, nil
}

// AvailableTransitions returns the transitions out of a state visible to an
// actor with the given role, in definition order. The rendering layer uses
// this to tell each collaborating actor only what they are allowed to do.
func AvailableTransitions(state domain.State, role string) []domain.Transition {
	var out []domain.Transition
	for _, t := range state.Transitions {
		if t.VisibleTo(role) {
			out = append(out, t)
		}
	}
	return out
}

// Triggers returns the trigger names visible to a role, deduplicated, in
// definition order.
func Triggers(state domain.State, role string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, t := range AvailableTransitions(state, role) {
		if _, dup := seen[t.Trigger]; dup {
			continue
		}
		seen[t.Trigger] = struct{}{}
		out = append(out, t.Trigger)
	}
	return out
}

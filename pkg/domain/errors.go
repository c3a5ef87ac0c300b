package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConversationNotFound is returned when a conversation ID cannot be found
// in the store.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrWorkflowNotFound is returned when a workflow definition source does not
// know the requested workflow name.
var ErrWorkflowNotFound = errors.New("workflow not found")

// DefinitionError reports a malformed or ambiguous workflow definition. It is
// fatal configuration, surfaced to the operator, never agent-recoverable.
type DefinitionError struct {
	Workflow string
	Reason   string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("invalid workflow %q: %s", e.Workflow, e.Reason)
}

// UnknownStateError reports a current state that does not exist in the
// definition. This indicates a caller bug or a definition change underneath
// a live conversation.
type UnknownStateError struct {
	Workflow string
	State    string
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("unknown state %q in workflow %q", e.State, e.Workflow)
}

// NoSuchTransitionError reports a trigger with no matching transition for the
// requesting role. It names the legal triggers so the calling agent can
// self-correct.
type NoSuchTransitionError struct {
	State     string
	Trigger   string
	Role      string
	Available []string
}

func (e *NoSuchTransitionError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("no transition %q from state %q (state is terminal for role %s)",
			e.Trigger, e.State, displayRole(e.Role))
	}
	return fmt.Sprintf("no transition %q from state %q (available: %s)",
		e.Trigger, e.State, strings.Join(e.Available, ", "))
}

// AmbiguousTransitionError reports multiple transitions matching the same
// trigger for the same role. Definitions must be unambiguous per role; the
// engine refuses to silently pick one.
type AmbiguousTransitionError struct {
	State   string
	Trigger string
	Role    string
	Targets []string
}

func (e *AmbiguousTransitionError) Error() string {
	return fmt.Sprintf("trigger %q from state %q matches %d transitions for role %s (targets: %s)",
		e.Trigger, e.State, len(e.Targets), displayRole(e.Role), strings.Join(e.Targets, ", "))
}

// ValidationError is raised by a beforePhaseTransition plugin to veto a
// transition. It is expected and recoverable: the agent does more work and
// retries. The plugin's message is surfaced verbatim.
type ValidationError struct {
	Plugin string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("transition blocked by plugin %q: %v", e.Plugin, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PersistenceError reports a store write failure after a transition was
// already resolved. It is surfaced distinctly so callers know the resolved
// transition was not committed and can safely retry.
type PersistenceError struct {
	ConversationID string
	Err            error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist conversation %q: %v", e.ConversationID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

package domain

// ConversationState is the persisted snapshot of one conversation's position
// in a workflow. It is created on the first advance call for a conversation,
// mutated exactly once per successful transition, and never deleted by the
// engine (retention is a host concern).
type ConversationState struct {
	ConversationID string `json:"conversation_id"`
	WorkflowName   string `json:"workflow_name"`
	CurrentState   string `json:"current_state"`

	// ActorRole records which collaborating participant owns this
	// conversation. Empty when the workflow is not role-scoped.
	ActorRole string `json:"actor_role,omitempty"`

	// Metadata holds host- and plugin-specific bookkeeping, keyed by
	// namespaced strings (e.g. "tracker.epic_id"). Structured storage here
	// replaces scraping identifiers back out of rendered documents.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Clone returns a deep copy, so stores can hand out snapshots without
// exposing their internal maps to caller mutation.
func (c ConversationState) Clone() ConversationState {
	out := c
	if c.Metadata != nil {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// SetMetadata assigns a metadata key, allocating the map on first use.
func (c *ConversationState) SetMetadata(key, value string) {
	if c.Metadata == nil {
		c.Metadata = make(map[string]string)
	}
	c.Metadata[key] = value
}

package session

import (
	"context"
	"fmt"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/internal/engine"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/internal/render"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/plugin"
)

// AdvanceRequest asks the engine to move one conversation forward.
type AdvanceRequest struct {
	ConversationID string

	// Workflow names the definition to start. Required on the first call
	// for a conversation, ignored afterwards (the conversation remembers).
	Workflow string

	Trigger string

	// Role identifies the collaborating actor. Defaults to the role stored
	// on the conversation.
	Role string

	// Substitutions resolve $VARIABLE tokens in instructions and reason
	// templates. Unresolved tokens are left verbatim.
	Substitutions map[string]string
}

// AdvanceResult is the outcome of a successful advance.
type AdvanceResult struct {
	ConversationID string `json:"conversation_id"`
	Workflow       string `json:"workflow"`
	From           string `json:"from"`
	To             string `json:"to"`

	// Instructions is the rendered, plugin-decorated phase instruction text.
	Instructions string `json:"instructions"`

	// Reason explains why the transition was taken, when the definition
	// provides a reason template.
	Reason string `json:"reason,omitempty"`

	EntranceCriteria []string `json:"entrance_criteria,omitempty"`

	// AvailableTriggers lists what this actor may do next from the new state.
	AvailableTriggers []string `json:"available_triggers,omitempty"`

	// Started reports that this call created the conversation.
	Started bool `json:"started,omitempty"`

	// PlanPath is the location of the plan document, when one was created.
	PlanPath string `json:"plan_path,omitempty"`

	ReviewPerspectives []domain.ReviewPerspective `json:"review_perspectives,omitempty"`
}

const defaultPlanTemplate = `# Development Plan

Conversation: $CONVERSATION_ID
Workflow: $WORKFLOW

## Goal

_Describe what this development effort should achieve._

## Phases

Track progress per phase below. Keep completed items checked off.
`

// Advance moves the conversation one transition forward. For a conversation
// that does not exist yet, the configured start trigger creates it at the
// workflow's initial state; any other trigger fails with
// domain.ErrConversationNotFound.
//
// The resolved transition is only committed after the beforePhaseTransition
// validation hook passes and the store write succeeds; a store failure is
// reported as *domain.PersistenceError so the caller knows it may retry
// without re-resolving.
func (m *Manager) Advance(ctx context.Context, req AdvanceRequest) (AdvanceResult, error) {
	var result AdvanceResult
	err := m.withLock(ctx, req.ConversationID, func(ctx context.Context) error {
		var err error
		result, err = m.advanceLocked(ctx, req)
		return err
	})
	return result, err
}

func (m *Manager) advanceLocked(ctx context.Context, req AdvanceRequest) (AdvanceResult, error) {
	if req.ConversationID == "" {
		return AdvanceResult{}, fmt.Errorf("conversation id is required")
	}

	state, found, err := m.store.Get(ctx, req.ConversationID)
	if err != nil {
		return AdvanceResult{}, fmt.Errorf("failed to read conversation %q: %w", req.ConversationID, err)
	}

	if !found {
		return m.startConversation(ctx, req)
	}
	return m.advanceConversation(ctx, req, state)
}

// startConversation creates the conversation at the workflow's initial state.
func (m *Manager) startConversation(ctx context.Context, req AdvanceRequest) (AdvanceResult, error) {
	if req.Trigger != m.startTrigger {
		return AdvanceResult{}, fmt.Errorf("%w: %s (use trigger %q to begin)",
			domain.ErrConversationNotFound, req.ConversationID, m.startTrigger)
	}
	if req.Workflow == "" {
		return AdvanceResult{}, fmt.Errorf("workflow name is required to start conversation %q", req.ConversationID)
	}

	def, err := m.Workflow(req.Workflow)
	if err != nil {
		return AdvanceResult{}, err
	}
	initial := def.States[def.InitialState]

	hc := m.hookContext(req.ConversationID, def.Name, "", def.InitialState, req.Role)
	if err := m.plugins.BeforePhaseTransition(ctx, hc); err != nil {
		return AdvanceResult{}, err
	}

	subs := m.substitutions(req, def.Name)
	instructions := m.renderer.Render(ctx, hc, initial.DefaultInstructions, subs)

	state := domain.ConversationState{
		ConversationID: req.ConversationID,
		WorkflowName:   def.Name,
		CurrentState:   def.InitialState,
		ActorRole:      req.Role,
	}
	if err := m.store.Put(ctx, state); err != nil {
		return AdvanceResult{}, &domain.PersistenceError{ConversationID: req.ConversationID, Err: err}
	}

	result := AdvanceResult{
		ConversationID:    req.ConversationID,
		Workflow:          def.Name,
		From:              def.InitialState,
		To:                def.InitialState,
		Instructions:      instructions,
		EntranceCriteria:  initial.EntranceCriteria,
		AvailableTriggers: engine.Triggers(initial, req.Role),
		Started:           true,
	}

	// Side effects after the state is durable: plan document first, so the
	// afterStartDevelopment hooks can already rely on it existing.
	result.PlanPath = m.createPlan(ctx, hc, subs)
	m.plugins.AfterStartDevelopment(ctx, hc)

	return result, nil
}

// advanceConversation resolves and commits one transition of an existing
// conversation.
func (m *Manager) advanceConversation(ctx context.Context, req AdvanceRequest, state domain.ConversationState) (AdvanceResult, error) {
	def, err := m.Workflow(state.WorkflowName)
	if err != nil {
		return AdvanceResult{}, err
	}

	role := req.Role
	if role == "" {
		role = state.ActorRole
	}

	// Resolve first (pure, no side effects) so the validation hook sees the
	// implied target state.
	res, err := engine.Resolve(def, state.CurrentState, req.Trigger, role)
	if err != nil {
		return AdvanceResult{}, err
	}

	hc := m.hookContext(req.ConversationID, def.Name, state.CurrentState, res.To.Name, role)
	if err := m.plugins.BeforePhaseTransition(ctx, hc); err != nil {
		return AdvanceResult{}, err
	}

	subs := m.substitutions(req, def.Name)
	instructions := m.renderer.Render(ctx, hc, res.Instructions, subs)

	from := state.CurrentState
	state.CurrentState = res.To.Name
	if err := m.store.Put(ctx, state); err != nil {
		return AdvanceResult{}, &domain.PersistenceError{ConversationID: req.ConversationID, Err: err}
	}

	m.logger.Info("phase transition",
		"conversation_id", req.ConversationID,
		"workflow", def.Name,
		"from", from,
		"to", res.To.Name,
		"trigger", req.Trigger,
	)

	return AdvanceResult{
		ConversationID:     req.ConversationID,
		Workflow:           def.Name,
		From:               from,
		To:                 res.To.Name,
		Instructions:       instructions,
		Reason:             render.Substitute(res.Transition.ReasonTemplate, subs),
		EntranceCriteria:   res.To.EntranceCriteria,
		AvailableTriggers:  engine.Triggers(res.To, role),
		ReviewPerspectives: res.Transition.ReviewPerspectives,
	}, nil
}

// WhatsNext re-renders the current phase's instructions without advancing.
// Agents call this to re-orient after a context reset.
func (m *Manager) WhatsNext(ctx context.Context, conversationID, role string, substitutions map[string]string) (AdvanceResult, error) {
	var result AdvanceResult
	err := m.withLock(ctx, conversationID, func(ctx context.Context) error {
		state, found, err := m.store.Get(ctx, conversationID)
		if err != nil {
			return fmt.Errorf("failed to read conversation %q: %w", conversationID, err)
		}
		if !found {
			return fmt.Errorf("%w: %s", domain.ErrConversationNotFound, conversationID)
		}

		def, err := m.Workflow(state.WorkflowName)
		if err != nil {
			return err
		}
		current, ok := def.States[state.CurrentState]
		if !ok {
			return &domain.UnknownStateError{Workflow: def.Name, State: state.CurrentState}
		}

		if role == "" {
			role = state.ActorRole
		}

		hc := m.hookContext(conversationID, def.Name, state.CurrentState, "", role)
		subs := m.substitutions(AdvanceRequest{
			ConversationID: conversationID,
			Substitutions:  substitutions,
		}, def.Name)

		result = AdvanceResult{
			ConversationID:    conversationID,
			Workflow:          def.Name,
			From:              state.CurrentState,
			To:                state.CurrentState,
			Instructions:      m.renderer.Render(ctx, hc, current.DefaultInstructions, subs),
			EntranceCriteria:  current.EntranceCriteria,
			AvailableTriggers: engine.Triggers(current, role),
		}
		return nil
	})
	return result, err
}

// createPlan writes the initial plan document through the plugin chain.
// Plan creation is advisory: a failure is logged, never surfaced.
func (m *Manager) createPlan(ctx context.Context, hc plugin.HookContext, subs map[string]string) string {
	if m.plans == nil {
		return ""
	}

	content := render.Substitute(m.planTemplate, subs)
	content = m.plugins.AfterPlanFileCreated(ctx, hc, content)

	path, err := m.plans.Create(ctx, hc.ConversationID, content)
	if err != nil {
		m.logger.Warn("failed to create plan document",
			"conversation_id", hc.ConversationID, "err", err)
		return ""
	}
	return path
}

func (m *Manager) hookContext(conversationID, workflow, current, target, role string) plugin.HookContext {
	return plugin.HookContext{
		ConversationID: conversationID,
		Workflow:       workflow,
		CurrentState:   current,
		TargetState:    target,
		ProjectPath:    m.projectPath,
		ActorRole:      role,
	}
}

// substitutions merges the engine-provided variables with the caller's map.
// Caller values win on conflict.
func (m *Manager) substitutions(req AdvanceRequest, workflow string) map[string]string {
	subs := map[string]string{
		"CONVERSATION_ID": req.ConversationID,
		"WORKFLOW":        workflow,
		"PROJECT_PATH":    m.projectPath,
	}
	for k, v := range req.Substitutions {
		subs[k] = v
	}
	return subs
}

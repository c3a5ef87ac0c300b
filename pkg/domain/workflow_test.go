package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDefinition() WorkflowDefinition {
	return WorkflowDefinition{
		Name:         "development",
		InitialState: "explore",
		States: map[string]State{
			"explore": {
				Name: "explore",
				Transitions: []Transition{
					{Trigger: "explore_done", To: "plan"},
				},
			},
			"plan": {
				Name: "plan",
				Transitions: []Transition{
					{Trigger: "plan_done", To: "explore"},
				},
			},
		},
	}
}

func TestWorkflowDefinition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WorkflowDefinition)
		wantErr string
	}{
		{
			name:   "valid definition",
			mutate: func(d *WorkflowDefinition) {},
		},
		{
			name:    "missing name",
			mutate:  func(d *WorkflowDefinition) { d.Name = "" },
			wantErr: "name is required",
		},
		{
			name:    "no states",
			mutate:  func(d *WorkflowDefinition) { d.States = nil },
			wantErr: "no states",
		},
		{
			name:    "initial state missing",
			mutate:  func(d *WorkflowDefinition) { d.InitialState = "nope" },
			wantErr: `initial state "nope" does not exist`,
		},
		{
			name: "dangling transition target",
			mutate: func(d *WorkflowDefinition) {
				s := d.States["explore"]
				s.Transitions = []Transition{{Trigger: "explore_done", To: "missing"}}
				d.States["explore"] = s
			},
			wantErr: `targets unknown state "missing"`,
		},
		{
			name: "transition without trigger",
			mutate: func(d *WorkflowDefinition) {
				s := d.States["explore"]
				s.Transitions = []Transition{{To: "plan"}}
				d.States["explore"] = s
			},
			wantErr: "without a trigger",
		},
		{
			name: "duplicate trigger for same role",
			mutate: func(d *WorkflowDefinition) {
				s := d.States["explore"]
				s.Transitions = []Transition{
					{Trigger: "explore_done", To: "plan"},
					{Trigger: "explore_done", To: "explore"},
				}
				d.States["explore"] = s
			},
			wantErr: `declares trigger "explore_done" twice`,
		},
		{
			name: "same trigger for different roles is legal",
			mutate: func(d *WorkflowDefinition) {
				s := d.States["explore"]
				s.Transitions = []Transition{
					{Trigger: "done", To: "plan", Role: "architect"},
					{Trigger: "done", To: "explore", Role: "developer"},
				}
				d.States["explore"] = s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDefinition()
			tt.mutate(&def)

			err := def.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var defErr *DefinitionError
			require.ErrorAs(t, err, &defErr)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTransition_VisibleTo(t *testing.T) {
	open := Transition{Trigger: "go", To: "next"}
	scoped := Transition{Trigger: "go", To: "next", Role: "architect"}

	assert.True(t, open.VisibleTo(""))
	assert.True(t, open.VisibleTo("developer"))
	assert.True(t, scoped.VisibleTo("architect"))
	assert.False(t, scoped.VisibleTo("developer"))
	assert.False(t, scoped.VisibleTo(""))
}

func TestWorkflowDefinition_Roles(t *testing.T) {
	def := validDefinition()
	s := def.States["explore"]
	s.Transitions = []Transition{
		{Trigger: "a", To: "plan", Role: "developer"},
		{Trigger: "b", To: "plan", Role: "architect"},
		{Trigger: "c", To: "plan"},
	}
	def.States["explore"] = s

	assert.Equal(t, []string{"architect", "developer"}, def.Roles())
}

func TestConversationState_Clone(t *testing.T) {
	state := ConversationState{
		ConversationID: "c1",
		WorkflowName:   "development",
		CurrentState:   "plan",
	}
	state.SetMetadata("tracker.epic_id", "E-1")

	clone := state.Clone()
	clone.Metadata["tracker.epic_id"] = "E-2"

	assert.Equal(t, "E-1", state.Metadata["tracker.epic_id"])
}

package vibe_test

import (
	"context"
	"fmt"
	"log"

	vibe "github.com/mrsimpson/responsible-vibe-mcp-sub000"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/adapters/memory"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/session"
)

// ExampleNew demonstrates embedding the engine as a library with a workflow
// defined in pure Go, no YAML files involved.
func ExampleNew() {
	// 1. Define the workflow with plain structs.
	source := memory.NewSource(domain.WorkflowDefinition{
		Name:         "mini",
		InitialState: "work",
		States: map[string]domain.State{
			"work": {
				Name:                "work",
				DefaultInstructions: "Do the work.",
				Transitions: []domain.Transition{
					{Trigger: "work_done", To: "done"},
				},
			},
			"done": {
				Name:                "done",
				DefaultInstructions: "Wrap up.",
			},
		},
	})

	// 2. Initialize the engine. State defaults to in-memory.
	engine, err := vibe.New(vibe.WithWorkflowSource(source))
	if err != nil {
		log.Fatal(err)
	}

	// 3. Start a conversation and walk it to the end.
	ctx := context.Background()
	res, err := engine.Advance(ctx, session.AdvanceRequest{
		ConversationID: "demo",
		Workflow:       "mini",
		Trigger:        "start",
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.To, "->", res.Instructions)

	res, err = engine.Advance(ctx, session.AdvanceRequest{
		ConversationID: "demo",
		Trigger:        "work_done",
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.To, "->", res.Instructions)

	// Output:
	// work -> Do the work.
	// done -> Wrap up.
}

package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"
)

// RunStateStoreContract runs a suite of tests verifying that a StateStore
// implementation adheres to the interface contract. Adapter packages call
// this from their own tests so every backend proves the same semantics.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	id := "contract-" + time.Now().Format("20060102150405.000")

	t.Run("GetMissing", func(t *testing.T) {
		_, found, err := store.Get(ctx, "missing-"+id)
		require.NoError(t, err, "a missing conversation is not an error")
		assert.False(t, found)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		state := domain.ConversationState{
			ConversationID: id,
			WorkflowName:   "development",
			CurrentState:   "plan",
			ActorRole:      "architect",
		}
		state.SetMetadata("tracker.epic_id", "EPIC-1.2.3")

		require.NoError(t, store.Put(ctx, state))

		loaded, found, err := store.Get(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, state.ConversationID, loaded.ConversationID)
		assert.Equal(t, state.WorkflowName, loaded.WorkflowName)
		assert.Equal(t, state.CurrentState, loaded.CurrentState)
		assert.Equal(t, state.ActorRole, loaded.ActorRole)
		assert.Equal(t, "EPIC-1.2.3", loaded.Metadata["tracker.epic_id"])
	})

	t.Run("Overwrite", func(t *testing.T) {
		state := domain.ConversationState{
			ConversationID: id,
			WorkflowName:   "development",
			CurrentState:   "code",
		}
		require.NoError(t, store.Put(ctx, state))

		loaded, found, err := store.Get(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "code", loaded.CurrentState)
	})

	t.Run("Isolation", func(t *testing.T) {
		state := domain.ConversationState{
			ConversationID: id + "-iso",
			WorkflowName:   "development",
			CurrentState:   "explore",
		}
		state.SetMetadata("k", "v")
		require.NoError(t, store.Put(ctx, state))

		loaded, _, err := store.Get(ctx, id+"-iso")
		require.NoError(t, err)
		loaded.Metadata["k"] = "mutated"

		again, _, err := store.Get(ctx, id+"-iso")
		require.NoError(t, err)
		assert.Equal(t, "v", again.Metadata["k"], "stores must hand out isolated copies")
	})
}

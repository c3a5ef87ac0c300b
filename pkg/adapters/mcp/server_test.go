package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vibe "github.com/mrsimpson/responsible-vibe-mcp-sub000"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/internal/logging"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	engine, err := vibe.New()
	require.NoError(t, err)
	return NewServer(engine, logging.NewNop())
}

func TestHandleStart(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	result, err := s.handleStart(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"workflow":        "development",
		"conversation_id": "c1",
	})
	require.NoError(t, err)
	assert.True(t, result.Started)
	assert.Equal(t, "explore", result.To)
	assert.Contains(t, result.Instructions, "EXPLORE phase")
}

func TestHandleStart_GeneratesConversationID(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleStart(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"workflow": "development",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.ConversationID)

	// The generated conversation is real: it can be advanced.
	next, err := s.handleProceed(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"conversation_id": result.ConversationID,
		"trigger":         "explore_done",
	})
	require.NoError(t, err)
	assert.Equal(t, "plan", next.To)
}

func TestHandleProceed_ErrorsNameLegalTriggers(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleStart(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"workflow":        "development",
		"conversation_id": "c2",
	})
	require.NoError(t, err)

	_, err = s.handleProceed(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"conversation_id": "c2",
		"trigger":         "ship_it",
	})
	var noSuch *domain.NoSuchTransitionError
	require.ErrorAs(t, err, &noSuch)
	assert.Contains(t, err.Error(), "explore_done",
		"the agent gets the legal triggers to self-correct")
}

func TestHandleProceed_Substitutions(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleStart(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"workflow":        "development",
		"conversation_id": "c3",
	})
	require.NoError(t, err)

	result, err := s.handleProceed(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"conversation_id": "c3",
		"trigger":         "explore_done",
		"substitutions":   `{"PROJECT_PATH": "/custom/project"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "plan", result.To)
}

func TestHandleWhatsNext(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleWhatsNext(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"conversation_id": "ghost",
	})
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)

	_, err = s.handleStart(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"workflow":        "development",
		"conversation_id": "c4",
	})
	require.NoError(t, err)

	result, err := s.handleWhatsNext(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"conversation_id": "c4",
	})
	require.NoError(t, err)
	assert.Equal(t, "explore", result.To)
	assert.Equal(t, []string{"explore_done"}, result.AvailableTriggers)
}

func TestParseSubstitutions(t *testing.T) {
	assert.Nil(t, parseSubstitutions(map[string]interface{}{}))
	assert.Nil(t, parseSubstitutions(map[string]interface{}{"substitutions": ""}))
	assert.Nil(t, parseSubstitutions(map[string]interface{}{"substitutions": "not json"}))
	assert.Equal(t, map[string]string{"A": "b"},
		parseSubstitutions(map[string]interface{}{"substitutions": `{"A":"b"}`}))
}

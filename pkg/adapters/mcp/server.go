// Package mcp exposes the workflow engine as an MCP server, the transport a
// coding agent actually drives it through. Tools mirror the library surface:
// start a conversation, advance it, re-orient, and inspect workflows.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	vibe "github.com/mrsimpson/responsible-vibe-mcp-sub000"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/session"
)

// Server wraps the engine and exposes it over MCP.
type Server struct {
	engine    *vibe.Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server and registers its tools and resources.
func NewServer(engine *vibe.Engine, logger *slog.Logger) *Server {
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("responsible-vibe", vibe.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: sseServer,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	startTool := mcp.NewTool("start_development",
		mcp.WithDescription("Start a new development conversation in the given workflow. Returns the instructions for the initial phase."),
		mcp.WithString("workflow", mcp.Required(), mcp.Description("Workflow name (see list_workflows)")),
		mcp.WithString("conversation_id", mcp.Description("Conversation ID; generated when omitted")),
		mcp.WithString("role", mcp.Description("Actor role for role-scoped workflows")),
		mcp.WithOutputSchema[session.AdvanceResult](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStart))

	proceedTool := mcp.NewTool("proceed_to_phase",
		mcp.WithDescription("Advance the conversation by firing a transition trigger. Fails with the list of legal triggers when the trigger does not apply."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation ID")),
		mcp.WithString("trigger", mcp.Required(), mcp.Description("Transition trigger to fire")),
		mcp.WithString("role", mcp.Description("Actor role")),
		mcp.WithString("substitutions", mcp.Description("JSON object of $VARIABLE substitutions")),
		mcp.WithOutputSchema[session.AdvanceResult](),
	)
	s.mcpServer.AddTool(proceedTool, mcp.NewStructuredToolHandler(s.handleProceed))

	whatsNextTool := mcp.NewTool("whats_next",
		mcp.WithDescription("Re-render the current phase's instructions without advancing. Use after a context reset."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation ID")),
		mcp.WithString("role", mcp.Description("Actor role")),
		mcp.WithString("substitutions", mcp.Description("JSON object of $VARIABLE substitutions")),
		mcp.WithOutputSchema[session.AdvanceResult](),
	)
	s.mcpServer.AddTool(whatsNextTool, mcp.NewStructuredToolHandler(s.handleWhatsNext))

	s.mcpServer.AddTool(mcp.NewTool("list_workflows",
		mcp.WithDescription("List the available workflow definitions."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		names, err := s.engine.Workflows()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("listing workflows failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(names)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (session.AdvanceResult, error) {
	workflow, _ := args["workflow"].(string)
	conversationID, _ := args["conversation_id"].(string)
	role, _ := args["role"].(string)

	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	result, err := s.engine.Advance(ctx, session.AdvanceRequest{
		ConversationID: conversationID,
		Workflow:       workflow,
		Trigger:        session.DefaultStartTrigger,
		Role:           role,
	})
	if err != nil {
		return session.AdvanceResult{}, fmt.Errorf("start failed: %w", err)
	}
	return result, nil
}

func (s *Server) handleProceed(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (session.AdvanceResult, error) {
	conversationID, _ := args["conversation_id"].(string)
	trigger, _ := args["trigger"].(string)
	role, _ := args["role"].(string)

	result, err := s.engine.Advance(ctx, session.AdvanceRequest{
		ConversationID: conversationID,
		Trigger:        trigger,
		Role:           role,
		Substitutions:  parseSubstitutions(args),
	})
	if err != nil {
		// Transition errors are expected agent feedback, not server bugs;
		// surface the message so the agent can self-correct.
		return session.AdvanceResult{}, err
	}
	return result, nil
}

func (s *Server) handleWhatsNext(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (session.AdvanceResult, error) {
	conversationID, _ := args["conversation_id"].(string)
	role, _ := args["role"].(string)

	result, err := s.engine.WhatsNext(ctx, conversationID, role, parseSubstitutions(args))
	if err != nil {
		return session.AdvanceResult{}, err
	}
	return result, nil
}

func parseSubstitutions(args map[string]interface{}) map[string]string {
	raw, ok := args["substitutions"].(string)
	if !ok || raw == "" {
		return nil
	}
	var subs map[string]string
	if err := json.Unmarshal([]byte(raw), &subs); err != nil {
		return nil
	}
	return subs
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("vibe://workflows", "Available Workflow Definitions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		names, err := s.engine.Workflows()
		if err != nil {
			return nil, fmt.Errorf("failed to list workflows: %w", err)
		}
		jsonBytes, _ := json.Marshal(names)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "vibe://workflows",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/flowgraph/internal/generator"
)

// handleGenerateFlowGraph runs the generator and returns the explanation
// and metrics as text with the PNG attached as image content.
func (s *Server) handleGenerateFlowGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description, err := request.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: description"), nil
	}
	repair := request.GetBool("repair", false)

	id, err := s.session(ctx, request.GetString("session_id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("session unavailable: %v", err)), nil
	}

	res, err := s.engine.Generate(ctx, id, description, repair)
	if err != nil {
		if errors.Is(err, generator.ErrEmptyInput) {
			return mcp.NewToolResultError(generator.MsgEmptyInput), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("generation failed: %v", err)), nil
	}
	if res.UserError != "" {
		return mcp.NewToolResultError(res.UserError), nil
	}

	return mcp.NewToolResultImage(formatResult(id, res), res.Image, "image/png"), nil
}

// handleClearSession resets a conversation.
func (s *Server) handleClearSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.session(ctx, request.GetString("session_id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("session unavailable: %v", err)), nil
	}
	if err := s.sessions.Reset(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("clear failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session %s cleared.", id)), nil
}

// formatResult renders the explanation and metrics for an AI agent.
func formatResult(sessionID string, res *generator.Result) string {
	var sb strings.Builder
	resp := res.Response()
	if last, ok := resp.LastAssistant(); ok {
		sb.WriteString(last.Content)
		sb.WriteString("\n\n")
	}
	m := res.Metrics
	sb.WriteString(fmt.Sprintf("Metrics: %d nodes, %d edges, cyclomatic complexity %d\n", m.Nodes, m.Edges, m.Cyclomatic))
	sb.WriteString(fmt.Sprintf("Session: %s\n", sessionID))
	return sb.String()
}

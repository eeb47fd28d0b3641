package mcp

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/flowgraph/internal/generator"
	"github.com/ziadkadry99/flowgraph/internal/session"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Generator produces graphs for a session. *generator.Engine satisfies it.
type Generator interface {
	Generate(ctx context.Context, sessionID, input string, repair bool) (*generator.Result, error)
}

// Server wraps an MCP server that exposes graph generation tools.
type Server struct {
	engine   Generator
	sessions *session.Store
	mcp      *server.MCPServer

	// session used when a tool call names none
	mu        sync.Mutex
	defaultID string
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(engine Generator, sessions *session.Store) *Server {
	s := &Server{
		engine:   engine,
		sessions: sessions,
	}

	s.mcp = server.NewMCPServer(
		"flowgraph",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(generateFlowGraphTool, s.handleGenerateFlowGraph)
	s.mcp.AddTool(clearSessionTool, s.handleClearSession)
}

// session resolves the session for a call. A known id is used as is; an
// empty or unknown id falls back to the server's own conversation, created
// on first use.
func (s *Server) session(ctx context.Context, id string) (string, error) {
	if id != "" {
		ok, err := s.sessions.Exists(ctx, id)
		if err != nil {
			return "", err
		}
		if ok {
			return id, nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	resolved, err := s.sessions.Ensure(ctx, s.defaultID)
	if err != nil {
		return "", err
	}
	s.defaultID = resolved
	return resolved, nil
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

package mcp

import "github.com/mark3labs/mcp-go/mcp"

// generateFlowGraphTool defines the generate_flow_graph MCP tool.
var generateFlowGraphTool = mcp.NewTool("generate_flow_graph",
	mcp.WithDescription("Generate a control flow graph from a natural language process description. Returns an explanation, graph metrics and the rendered PNG."),
	mcp.WithString("description",
		mcp.Required(),
		mcp.Description("Natural language description of the process"),
	),
	mcp.WithBoolean("repair",
		mcp.Description("Refine the previous graph of the session instead of starting a new one"),
	),
	mcp.WithString("session_id",
		mcp.Description("Conversation to continue (default: the server's own session)"),
	),
)

// clearSessionTool defines the clear_session MCP tool.
var clearSessionTool = mcp.NewTool("clear_session",
	mcp.WithDescription("Reset a conversation to the welcome message."),
	mcp.WithString("session_id",
		mcp.Description("Conversation to reset (default: the server's own session)"),
	),
)

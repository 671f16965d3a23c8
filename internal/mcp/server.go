// Package mcp exposes the engine to MCP clients over stdio: indexing,
// retrieval, context assembly, and plan decomposition as tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/weaverhq/weaver/internal/engine"
)

// Server wires the engine into an MCP server instance.
type Server struct {
	root   string
	engine *engine.Engine
	mcp    *server.MCPServer
	tree   loaded
}

// New builds the server with all tools registered. root is the project
// directory tools operate on; version goes into the MCP handshake.
func New(root, version string, eng *engine.Engine) *Server {
	s := &Server{root: root, engine: eng}

	s.mcp = server.NewMCPServer(
		"weaver",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s.mcp.AddTool(mcp.NewTool("weaver_index",
		mcp.WithDescription("Index the project's source files for retrieval."),
	), s.handleIndex)

	s.mcp.AddTool(mcp.NewTool("weaver_retrieve",
		mcp.WithDescription("Search indexed code chunks relevant to a query."),
		mcp.WithString("query", mcp.Required(), mcp.Description("what to look for")),
		mcp.WithNumber("top_k", mcp.Description("maximum results (default 10)")),
	), s.handleRetrieve)

	s.mcp.AddTool(mcp.NewTool("weaver_context",
		mcp.WithDescription("Assemble a generation context: relevant code under a token budget."),
		mcp.WithString("query", mcp.Required(), mcp.Description("the request the context is for")),
		mcp.WithString("active_file", mcp.Description("file currently being edited")),
		mcp.WithNumber("budget", mcp.Description("code token budget")),
	), s.handleContext)

	s.mcp.AddTool(mcp.NewTool("weaver_plan",
		mcp.WithDescription("Analyze a build request and decompose it into ordered steps."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("the build request")),
	), s.handlePlan)

	s.mcp.AddTool(mcp.NewTool("weaver_estimate",
		mcp.WithDescription("Estimate the model-token count of a text."),
		mcp.WithString("text", mcp.Required(), mcp.Description("text to estimate")),
	), s.handleEstimate)

	return s
}

// Serve blocks on stdio until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

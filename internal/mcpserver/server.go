// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes read-only Sowilo content tools for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/sowilo/internal/contentservice"
)

// Server wraps the MCP server with Sowilo content tools.
type Server struct {
	mcp *server.MCPServer
	svc *contentservice.Service
}

// New creates a new MCP server with all content tools registered.
func New(svc *contentservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Sowilo",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_content",
		mcp.WithDescription("Search site content (title, description, body) by substring."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Content source: blog, docs, or links")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchContent)

	s.mcp.AddTool(mcp.NewTool("read_content",
		mcp.WithDescription("Read the full body and metadata of one content item by slug."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Content source: blog, docs, or links")),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Content slug (e.g. guides/setup)")),
	), s.readContent)

	s.mcp.AddTool(mcp.NewTool("list_content",
		mcp.WithDescription("List published content slugs of a source, newest first."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Content source: blog, docs, or links")),
	), s.listContent)

	s.mcp.AddTool(mcp.NewTool("related_content",
		mcp.WithDescription("Find content related to a slug by shared category and tags."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Content source: blog, docs, or links")),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Slug of the item to find relations for")),
	), s.relatedContent)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	// RequireString accepts a present-but-empty value; an empty query
	// would match everything.
	if query == "" {
		return mcp.NewToolResultError("query must not be empty"), nil
	}
	hits, err := s.svc.Search(ctx, source, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(hits, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.Post(ctx, source, slug)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s/%s", source, slug)), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	posts, _, err := s.svc.Posts(ctx, source)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var slugs []string
	for _, p := range posts {
		slugs = append(slugs, p.Slug)
	}
	return mcp.NewToolResultText(strings.Join(slugs, "\n")), nil
}

func (s *Server) relatedContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	related, err := s.svc.Related(ctx, source, slug, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(related) == 0 {
		return mcp.NewToolResultText("no related content found"), nil
	}
	out, _ := json.MarshalIndent(related, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the session store and alias index to the hosting agent
// via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/alias"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/store"
)

// Server wraps the MCP server with Raido tools.
type Server struct {
	mcp     *server.MCPServer
	store   *store.Store
	aliases *alias.Index
	db      index.SessionIndex
}

// New creates a new MCP server with all Raido tools registered.
func New(st *store.Store, aliases *alias.Index, db index.SessionIndex) *Server {
	s := &Server{store: st, aliases: aliases, db: db}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List session records, newest first, with optional date and short-id filters."),
		mcp.WithString("date", mcp.Description("Filter to an exact date (YYYY-MM-DD)")),
		mcp.WithString("search", mcp.Description("Substring filter over session short ids")),
		mcp.WithNumber("offset", mcp.Description("Number of sessions to skip")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of sessions to return (default 50)")),
	), s.listSessions)

	s.mcp.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Fetch one session by short id, filename, or legacy date id, "+
			"including its body, extracted metadata, and checklist stats."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Short id prefix, full filename, or legacy date id")),
	), s.getSession)

	s.mcp.AddTool(mcp.NewTool("search_sessions",
		mcp.WithDescription("Full-text search through session titles and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchSessions)

	s.mcp.AddTool(mcp.NewTool("resolve_alias",
		mcp.WithDescription("Resolve a session alias to its session path."),
		mcp.WithString("alias", mcp.Required(), mcp.Description("Alias name")),
	), s.resolveAlias)

	s.mcp.AddTool(mcp.NewTool("set_alias",
		mcp.WithDescription("Create or update an alias for a session. Alias names use letters, "+
			"numbers, dashes, and underscores; a few CLI verbs are reserved."),
		mcp.WithString("alias", mcp.Required(), mcp.Description("Alias name")),
		mcp.WithString("session_path", mcp.Required(), mcp.Description("Session file path the alias points at")),
		mcp.WithString("title", mcp.Description("Optional human-readable title")),
	), s.setAlias)

	s.mcp.AddTool(mcp.NewTool("list_aliases",
		mcp.WithDescription("List aliases, most recently updated first."),
		mcp.WithString("search", mcp.Description("Case-insensitive substring filter over names and titles")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of aliases to return")),
	), s.listAliases)

	s.mcp.AddTool(mcp.NewTool("delete_alias",
		mcp.WithDescription("Delete an alias. The session file itself is untouched."),
		mcp.WithString("alias", mcp.Required(), mcp.Description("Alias name")),
	), s.deleteAlias)

	s.mcp.AddTool(mcp.NewTool("cleanup_aliases",
		mcp.WithDescription("Remove aliases whose session files no longer exist."),
	), s.cleanupAliases)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// Listen serves MCP on stdin/stdout until ctx is cancelled or stdin
// closes.
func (s *Server) Listen(ctx context.Context) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := store.ListOptions{}
	if v, err := req.RequireString("date"); err == nil {
		opts.Date = v
	}
	if v, err := req.RequireString("search"); err == nil {
		opts.Search = v
	}
	if v, err := req.RequireInt("offset"); err == nil {
		opts.Offset = v
	}
	if v, err := req.RequireInt("limit"); err == nil {
		opts.Limit = v
	}

	result := s.store.List(opts)
	out, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// An alias resolves to a filename; fall through to id matching
	// when the name is not a known alias.
	lookup := id
	if resolved, ok := s.aliases.Resolve(id); ok {
		lookup = filepath.Base(resolved.SessionPath)
	}

	sess, found := s.store.GetByID(lookup, true)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("session not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(sess, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) resolveAlias(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("alias")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resolved, ok := s.aliases.Resolve(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("alias not found: %s", name)), nil
	}
	out, _ := json.MarshalIndent(resolved, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) setAlias(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("alias")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sessionPath, err := req.RequireString("session_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title := ""
	if v, reqErr := req.RequireString("title"); reqErr == nil {
		title = v
	}

	result := s.aliases.Set(name, sessionPath, title)
	if !result.Success {
		return mcp.NewToolResultError(result.Error), nil
	}
	out, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listAliases(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	search := ""
	if v, err := req.RequireString("search"); err == nil {
		search = v
	}
	limit := 0
	if v, err := req.RequireInt("limit"); err == nil {
		limit = v
	}

	aliases := s.aliases.List(search, limit)
	out, _ := json.MarshalIndent(aliases, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) deleteAlias(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("alias")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result := s.aliases.Delete(name)
	if !result.Success {
		return mcp.NewToolResultError(result.Error), nil
	}
	out, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) cleanupAliases(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := s.aliases.Cleanup(s.store.Exists)
	out, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

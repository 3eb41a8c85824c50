// Package mcpserver exposes index lookups as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kamusis/docidx/internal/live"
	"github.com/kamusis/docidx/internal/search"
	searchindex "github.com/kamusis/docidx/internal/search/index"
)

const instructions = `Look up pages of a documentation site from its search index.
Use search_docs for free-text questions, lookup_term for an exact indexed
(stemmed, lowercase) term, and resolve_document to turn a document position
from a result into its path and title.`

const defaultLimit = 10

// Source provides the snapshot to answer from.
type Source interface {
	Current() *live.Snapshot
}

// Server is an MCP server whose tools answer from the current index snapshot.
type Server struct {
	mcpServer *server.MCPServer
	src       Source
}

// New creates an MCP server answering from src.
func New(src Source, version string) *Server {
	s := &Server{src: src}

	mcpServer := server.NewMCPServer(
		"docidx",
		version,
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)
	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("lookup_term",
			mcp.WithDescription("Exact lookup of one indexed term. Returns every document containing it, with section anchors when the index records them."),
			mcp.WithString("term",
				mcp.Description("Indexed term, e.g. \"kubernet\""),
				mcp.Required(),
			),
		),
		s.handleLookupTerm,
	)

	mcpServer.AddTool(
		mcp.NewTool("resolve_document",
			mcp.WithDescription("Resolve a document position to its path, source filename and title."),
			mcp.WithNumber("position",
				mcp.Description("Zero-based document position"),
				mcp.Required(),
			),
		),
		s.handleResolveDocument,
	)

	mcpServer.AddTool(
		mcp.NewTool("search_docs",
			mcp.WithDescription("Ranked search over page titles and text. Words are combined with AND; prefix a word with '-' to exclude pages containing it."),
			mcp.WithString("query",
				mcp.Description("Search query"),
				mcp.Required(),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results (default 10)"),
			),
		),
		s.handleSearchDocs,
	)
}

func (s *Server) index() (*searchindex.Index, error) {
	snap := s.src.Current()
	if snap == nil || snap.Index == nil {
		return nil, errors.New("no index loaded")
	}
	return snap.Index, nil
}

func (s *Server) handleLookupTerm(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	term, _ := args["term"].(string)
	if term == "" {
		return mcp.NewToolResultError("missing required parameter: term"), nil
	}
	idx, err := s.index()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(idx.LookupTerm(term))
}

func (s *Server) handleResolveDocument(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pos, ok := args["position"].(float64)
	if !ok {
		return mcp.NewToolResultError("missing required parameter: position"), nil
	}
	if pos != math.Trunc(pos) {
		return mcp.NewToolResultError(fmt.Sprintf("position must be an integer, got %v", pos)), nil
	}
	idx, err := s.index()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info, err := idx.ResolveDocument(searchindex.DocumentID(pos))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(info)
}

func (s *Server) handleSearchDocs(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	limit := defaultLimit
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}
	idx, err := s.index()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(search.Search(idx, query, search.Options{Limit: limit}))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// Run serves the tools over stdin/stdout until the client disconnects.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

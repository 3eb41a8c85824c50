package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kamusis/docidx/internal/live"
	"github.com/kamusis/docidx/internal/search"
	searchindex "github.com/kamusis/docidx/internal/search/index"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	idx, err := searchindex.Load([]byte(`Search.setIndex({
		docnames:["intro","guide/install"],
		titles:["Introduction","Installing"],
		terms:{instal:{"1":["pip"]},python:[0,1]},
		titleterms:{"1":{pip:"With pip"},instal:1,introduct:0}})`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return New(live.Static(idx), "test")
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(res.Content))
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return tc.Text
}

func TestLookupTerm(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleLookupTerm(context.Background(), call(map[string]any{"term": "instal"}))
	if err != nil || res.IsError {
		t.Fatalf("lookup_term failed: %v %s", err, text(t, res))
	}
	var matches []searchindex.DocumentMatch
	if err := json.Unmarshal([]byte(text(t, res)), &matches); err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].Path != "guide/install" {
		t.Fatalf("unexpected matches: %+v", matches)
	}
	if len(matches[0].Anchors) != 1 || matches[0].Anchors[0].Title != "With pip" {
		t.Fatalf("unexpected anchors: %+v", matches[0].Anchors)
	}
}

func TestLookupTerm_MissingArgument(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleLookupTerm(context.Background(), call(map[string]any{}))
	if err != nil || !res.IsError {
		t.Fatalf("expected a tool error, got %v %+v", err, res)
	}
}

func TestResolveDocument(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleResolveDocument(context.Background(), call(map[string]any{"position": float64(0)}))
	if err != nil || res.IsError {
		t.Fatalf("resolve_document failed: %v", err)
	}
	var info searchindex.DocumentInfo
	if err := json.Unmarshal([]byte(text(t, res)), &info); err != nil {
		t.Fatal(err)
	}
	if info.Title != "Introduction" {
		t.Fatalf("unexpected document: %+v", info)
	}

	for _, pos := range []float64{2, -1, 0.5} {
		res, err := s.handleResolveDocument(context.Background(), call(map[string]any{"position": pos}))
		if err != nil || !res.IsError {
			t.Fatalf("position %v: expected a tool error", pos)
		}
	}
}

func TestSearchDocs(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleSearchDocs(context.Background(), call(map[string]any{"query": "installing", "limit": float64(5)}))
	if err != nil || res.IsError {
		t.Fatalf("search_docs failed: %v", err)
	}
	var results []search.Result
	if err := json.Unmarshal([]byte(text(t, res)), &results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != 1 || results[0].Score != search.ScoreTitle {
		t.Fatalf("unexpected results: %+v", results)
	}
}

// Package wikimcp exposes the reader's public operations — get,
// pick_at_depth, search_categories, for_each/take, plus a fuzzy
// catsuggest lookup — as a single MCP tool server, the embedded-language
// binding surface named but left unspecified by spec §6. Grounded on the
// teacher's internal/mcp/server.go (mcp.NewServer + AddTool +
// jsonschema-validated input).
package wikimcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/proprietary/wikidice/internal/catrecord"
	"github.com/proprietary/wikidice/internal/catsuggest"
	"github.com/proprietary/wikidice/internal/graphindex"
)

// Server wraps a read-only graphindex.Reader as an MCP stdio server.
type Server struct {
	reader        *graphindex.Reader
	server        *mcp.Server
	rng           *rand.Rand
	suggester     *catsuggest.Suggester
	categoryNames []string
}

// New opens the index at dbPath with graphindex.OpenReader and registers
// every tool; no tool writes to the store. The full set of
// category names is loaded once up front so the suggest tool has
// candidates to score without re-scanning the store per call.
func New(dbPath string) (*Server, error) {
	reader, err := graphindex.OpenReader(dbPath)
	if err != nil {
		return nil, err
	}
	var names []string
	if err := reader.ForEach(func(name string, _ *catrecord.Record) bool {
		names = append(names, name)
		return true
	}); err != nil {
		reader.Close()
		return nil, err
	}
	s := &Server{
		reader:        reader,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		suggester:     catsuggest.New(0),
		categoryNames: names,
	}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "wikidice-mcp-server",
		Version: "0.1.0",
	}, nil)
	s.registerTools()
	return s, nil
}

// Start runs the server over stdio until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Close releases the underlying reader.
func (s *Server) Close() error {
	return s.reader.Close()
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "get",
		Description: "Return the full stored record for a category name: its member page ids, subcategory ids, and depth-indexed weight vector.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"category_name": {Type: "string", Description: "Exact category name"},
			},
			Required: []string{"category_name"},
		},
	}, s.handleGet)

	s.server.AddTool(&mcp.Tool{
		Name:        "pick_at_depth",
		Description: "Return a uniformly-random article page reachable from a category by at most depth nested subcategory traversals, weighted by distinct-page count.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"category_name":   {Type: "string", Description: "Root category name"},
				"depth":           {Type: "integer", Description: "Traversal radius, 0-255"},
				"with_derivation": {Type: "boolean", Description: "Include the category names visited during descent"},
			},
			Required: []string{"category_name", "depth"},
		},
	}, s.handlePickAtDepth)

	s.server.AddTool(&mcp.Tool{
		Name:        "search_categories",
		Description: "Prefix-autocomplete over category names, in storage byte order.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"prefix": {Type: "string", Description: "Category name prefix, max 1000 bytes"},
				"count":  {Type: "integer", Description: "Maximum results, capped at 100"},
			},
			Required: []string{"prefix"},
		},
	}, s.handleSearchCategories)

	s.server.AddTool(&mcp.Tool{
		Name:        "take",
		Description: "Return up to n stored category names in key order, for diagnostics.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"n": {Type: "integer", Description: "Maximum names to return"},
			},
			Required: []string{"n"},
		},
	}, s.handleTake)

	s.server.AddTool(&mcp.Tool{
		Name:        "suggest",
		Description: "Fuzzy \"did you mean\" lookup over category names, for a misspelled or partial query that search_categories' exact prefix match won't find.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {Type: "string", Description: "Misspelled or partial category name"},
				"limit": {Type: "integer", Description: "Maximum suggestions, defaults to 5"},
			},
			Required: []string{"query"},
		},
	}, s.handleSuggest)
}

type getParams struct {
	CategoryName string `json:"category_name"`
}

func (s *Server) handleGet(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p getParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errorResult("get", err), nil
	}
	rec, ok, err := s.reader.Get(p.CategoryName)
	if err != nil {
		return errorResult("get", err), nil
	}
	if !ok {
		return jsonResult(map[string]any{"found": false})
	}
	return jsonResult(map[string]any{
		"found":         true,
		"pages":         rec.Pages,
		"subcategories": rec.Subcategories,
		"weights":       rec.Weights,
	})
}

type pickParams struct {
	CategoryName   string `json:"category_name"`
	Depth          int    `json:"depth"`
	WithDerivation bool   `json:"with_derivation"`
}

func (s *Server) handlePickAtDepth(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p pickParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errorResult("pick_at_depth", err), nil
	}
	if p.Depth < 0 || p.Depth > 255 {
		return errorResult("pick_at_depth", fmt.Errorf("depth must be in [0, 255]")), nil
	}
	depth := uint8(p.Depth)

	if p.WithDerivation {
		page, derivation, ok, err := s.reader.PickAtDepthAndShowDerivation(p.CategoryName, depth, s.rng)
		if err != nil {
			return errorResult("pick_at_depth", err), nil
		}
		if !ok {
			return jsonResult(map[string]any{"found": false})
		}
		return jsonResult(map[string]any{"found": true, "page_id": page, "derivation": derivation})
	}

	page, ok, err := s.reader.PickAtDepth(p.CategoryName, depth, s.rng)
	if err != nil {
		return errorResult("pick_at_depth", err), nil
	}
	if !ok {
		return jsonResult(map[string]any{"found": false})
	}
	return jsonResult(map[string]any{"found": true, "page_id": page})
}

type searchParams struct {
	Prefix string `json:"prefix"`
	Count  int    `json:"count"`
}

func (s *Server) handleSearchCategories(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p searchParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errorResult("search_categories", err), nil
	}
	count := p.Count
	if count <= 0 {
		count = 10
	}
	names, err := s.reader.SearchCategories(p.Prefix, count)
	if err != nil {
		return errorResult("search_categories", err), nil
	}
	return jsonResult(map[string]any{"categories": names})
}

type takeParams struct {
	N int `json:"n"`
}

func (s *Server) handleTake(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p takeParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errorResult("take", err), nil
	}
	names, err := s.reader.Take(p.N)
	if err != nil {
		return errorResult("take", err), nil
	}
	return jsonResult(map[string]any{"categories": names})
}

type suggestParams struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (s *Server) handleSuggest(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p suggestParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errorResult("suggest", err), nil
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 5
	}
	names := s.suggester.Suggest(p.Query, s.categoryNames, limit)
	return jsonResult(map[string]any{"categories": names})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult("marshal", err), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}

// errorResult mirrors the teacher's createErrorResponse shape: the error
// is reported inside the result content with IsError set, never as an
// MCP protocol-level error, so a client can see and react to it.
func errorResult(operation string, err error) *mcp.CallToolResult {
	body, _ := json.Marshal(map[string]any{
		"success":   false,
		"operation": operation,
		"error":     err.Error(),
	})
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(body)}},
	}
}

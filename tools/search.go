package tools

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/lexandro/findex/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultMaxResults caps tool output when the caller does not ask for a limit.
const DefaultMaxResults = 50

// SearchArgs defines the input parameters for the findex_search tool.
type SearchArgs struct {
	Query      string `json:"query" jsonschema:"Case-insensitive substring matched against file names without their final extension. Empty matches every file"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of results to return (default 50)"`
	PathsOnly  bool   `json:"pathsOnly,omitempty" jsonschema:"If true return only full paths"`
}

// Searcher answers name queries against the current index.
type Searcher interface {
	SearchFiles(ctx context.Context, query string) ([]index.Entry, error)
}

// SearchHandler holds the dependencies for the search tool.
type SearchHandler struct {
	Searcher Searcher
	Logger   *slog.Logger
}

// Handle processes a findex_search request.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	results, err := h.Searcher.SearchFiles(ctx, args.Query)
	if err != nil {
		h.Logger.Error("findex_search failed", "query", args.Query, "error", err)
		return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
	}

	h.Logger.Info("findex_search",
		"query", args.Query,
		"results", len(results),
		"elapsed", time.Since(start),
	)

	slices.SortFunc(results, func(a, b index.Entry) int {
		return strings.Compare(a.Path, b.Path)
	})
	output := FormatEntries(results, resultLimit(args.MaxResults), args.PathsOnly)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: output}},
	}, nil, nil
}

func resultLimit(maxResults int) int {
	if maxResults <= 0 {
		return DefaultMaxResults
	}
	return maxResults
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexandro/findex/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FilesArgs defines the input parameters for the findex_files tool.
type FilesArgs struct {
	Pattern    string `json:"pattern" jsonschema:"Glob pattern. Without a slash it matches file names (e.g. *.pdf); with one it matches full paths (e.g. /home/me/docs/**/*.md)"`
	PathsOnly  bool   `json:"pathsOnly,omitempty" jsonschema:"If true return only full paths"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of results to return (default 50)"`
}

// IndexSource provides the current index, building or loading it on first use.
type IndexSource interface {
	Index(ctx context.Context) (*index.FileIndex, error)
}

// FilesHandler holds the dependencies for the files tool.
type FilesHandler struct {
	Source IndexSource
	Logger *slog.Logger
}

// Handle processes a findex_files request.
func (h *FilesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FilesArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Pattern == "" {
		h.Logger.Warn("findex_files called with empty pattern")
		return errorResult("Error: pattern parameter is required"), nil, nil
	}

	fileIndex, err := h.Source.Index(ctx)
	if err != nil {
		h.Logger.Error("findex_files failed", "pattern", args.Pattern, "error", err)
		return errorResult(fmt.Sprintf("Index error: %v", err)), nil, nil
	}

	limit := resultLimit(args.MaxResults)
	results, err := fileIndex.SearchByGlob(args.Pattern, limit)
	if err != nil {
		h.Logger.Error("findex_files failed", "pattern", args.Pattern, "error", err)
		return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
	}

	h.Logger.Info("findex_files",
		"pattern", args.Pattern,
		"results", len(results),
		"elapsed", time.Since(start),
	)

	output := FormatEntries(results, limit, args.PathsOnly)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: output}},
	}, nil, nil
}

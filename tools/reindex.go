package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lexandro/findex/catalog"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ReindexArgs defines the input parameters for the findex_reindex tool.
type ReindexArgs struct{}

// ReindexFunc rebuilds and persists the index.
type ReindexFunc func(ctx context.Context) (catalog.RebuildResult, error)

// ReindexHandler holds the dependencies for the reindex tool.
type ReindexHandler struct {
	DoReindex ReindexFunc
	Logger    *slog.Logger
}

// Handle processes a findex_reindex request.
func (h *ReindexHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ReindexArgs) (*mcp.CallToolResult, any, error) {
	h.Logger.Info("findex_reindex started")

	result, err := h.DoReindex(ctx)
	if err != nil {
		h.Logger.Error("findex_reindex failed", "error", err)
		return errorResult(fmt.Sprintf("Reindex error: %v", err)), nil, nil
	}

	elapsed := result.Duration.Round(time.Millisecond)
	h.Logger.Info("findex_reindex complete",
		"cycle", result.CycleID,
		"names", result.Names,
		"elapsed", elapsed,
	)

	output := fmt.Sprintf("Reindex complete: %s names from %s entries in %s",
		humanize.Comma(int64(result.Names)), humanize.Comma(int64(result.Walk.Entries)), elapsed)
	if result.Walk.Errors > 0 {
		output += fmt.Sprintf(" (%d unreadable entries skipped)", result.Walk.Errors)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: output}},
	}, nil, nil
}

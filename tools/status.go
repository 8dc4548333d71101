package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lexandro/findex/catalog"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatusArgs defines the input parameters for the findex_status tool (none required).
type StatusArgs struct{}

// StatusSource reports catalog state.
type StatusSource interface {
	Status() catalog.Status
}

// StatusHandler holds the dependencies for the status tool.
type StatusHandler struct {
	Source          StatusSource
	StartTime       time.Time
	RootDir         string
	RefreshInterval time.Duration
	Logger          *slog.Logger
}

// Handle processes a findex_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	status := h.Source.Status()
	uptime := time.Since(h.StartTime)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.Logger.Info("findex_status",
		"names", status.Names,
		"resident", status.Resident,
		"memory", memStats.Alloc,
		"uptime", uptime,
	)

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: FormatStatus(status, h.RootDir, h.RefreshInterval, uptime, memStats.HeapAlloc)}},
	}, nil, nil
}

// FormatStatus renders a catalog status report. Zero uptime or heap size
// leaves that line out.
func FormatStatus(status catalog.Status, rootDir string, refreshInterval, uptime time.Duration, heapBytes uint64) string {
	var builder strings.Builder

	builder.WriteString("=== findex Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Root directory: %s\n", rootDir))
	if refreshInterval > 0 {
		builder.WriteString(fmt.Sprintf("Refresh interval: %s\n", formatDuration(refreshInterval)))
	}
	if uptime > 0 {
		builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))
	}

	if status.Resident {
		builder.WriteString(fmt.Sprintf("Indexed names: %s\n", humanize.Comma(int64(status.Names))))
		builder.WriteString(fmt.Sprintf("Loaded: %s (generation %d)\n", humanize.Time(status.LoadedAt), status.Generation))
	} else {
		builder.WriteString("Indexed names: not loaded yet\n")
	}

	builder.WriteString(fmt.Sprintf("Index file: %s\n", status.IndexPath))
	if status.IndexExists {
		builder.WriteString(fmt.Sprintf("Index file size: %s, written %s\n",
			humanize.Bytes(uint64(status.IndexSize)), humanize.Time(status.IndexModTime)))
	} else {
		builder.WriteString("Index file size: missing\n")
	}

	if last := status.LastRebuild; last != nil {
		outcome := "ok"
		if last.Err != nil {
			outcome = fmt.Sprintf("failed: %v", last.Err)
		}
		builder.WriteString(fmt.Sprintf("Last rebuild: %s, %s, took %s (%d entries, %d skipped, %d errors)\n",
			humanize.Time(last.FinishedAt), outcome, last.Duration.Round(time.Millisecond),
			last.Walk.Entries, last.Walk.Skipped, last.Walk.Errors))
	}

	if heapBytes > 0 {
		builder.WriteString(fmt.Sprintf("Memory usage: %s\n", humanize.Bytes(heapBytes)))
	}

	return builder.String()
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}

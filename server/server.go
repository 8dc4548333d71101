package server

import (
	"github.com/lexandro/findex/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// Setup creates and configures the MCP server with all tool registrations.
func Setup(
	searchHandler *tools.SearchHandler,
	filesHandler *tools.FilesHandler,
	statusHandler *tools.StatusHandler,
	reindexHandler *tools.ReindexHandler,
) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "findex",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: `This server keeps a persisted index of every file name under a root directory. Lookups never touch the filesystem, so they are much faster than find or a recursive listing.

- Use findex_search to find files whose name (without extension) contains some text
- Use findex_files to match names or full paths with a glob
- The index is rebuilt in the background every refresh interval; use findex_reindex after large changes`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "findex_search",
		Description: `Find files by name. The query is matched case-insensitively as a substring of each file name with its final extension removed, so "report" finds "Report.pdf" and "q3-report.tar.gz" but "pdf" finds nothing.

An empty query lists every indexed file (subject to maxResults).`,
	}, searchHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "findex_files",
		Description: `Find indexed files by glob pattern.

Pattern examples:
  - "*.pdf" - every file name ending in .pdf
  - "invoice-*" - names starting with invoice-
  - "/home/me/src/**/*.go" - Go files under a directory (patterns with a slash match full paths)`,
	}, filesHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "findex_status",
		Description: "Show index status: name count, index file size and age, last rebuild outcome, memory usage and uptime.",
	}, statusHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "findex_reindex",
		Description: "Walk the root directory now, save the new index and make it current. The previous index stays in use if the walk or save fails.",
	}, reindexHandler.Handle)

	return mcpServer
}

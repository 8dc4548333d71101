package tools

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/lexandro/findex/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

// indexSearcher searches a fixed index and records the queries it sees.
type indexSearcher struct {
	index   *index.FileIndex
	err     error
	queries []string
}

func (s *indexSearcher) SearchFiles(ctx context.Context, query string) ([]index.Entry, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.index.Search(query, index.MinimumScore), nil
}

func newSearchHandler(files map[string]string) (*SearchHandler, *indexSearcher) {
	searcher := &indexSearcher{index: index.NewFileIndex(files)}
	return &SearchHandler{Searcher: searcher, Logger: testLogger()}, searcher
}

func Test_SearchHandler_MatchesStem(t *testing.T) {
	h, searcher := newSearchHandler(map[string]string{
		"report.pdf": "/docs/report.pdf",
		"notes.txt":  "/docs/notes.txt",
	})

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "REP"})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Found 1 files")
	assert.Contains(t, text, "report.pdf  (/docs/report.pdf)")
	assert.NotContains(t, text, "notes.txt")
	assert.Equal(t, []string{"REP"}, searcher.queries)
}

func Test_SearchHandler_EmptyQueryListsEverything(t *testing.T) {
	h, _ := newSearchHandler(map[string]string{
		"a.txt": "/a.txt",
		"b.txt": "/b.txt",
	})

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: ""})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Found 2 files")
}

func Test_SearchHandler_NoMatches(t *testing.T) {
	h, _ := newSearchHandler(map[string]string{"a.txt": "/a.txt"})

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "zzz"})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "No files matched.", resultText(t, result))
}

func Test_SearchHandler_ExtensionIsNotMatched(t *testing.T) {
	h, _ := newSearchHandler(map[string]string{"report.pdf": "/report.pdf"})

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, "No files matched.", resultText(t, result))
}

func Test_SearchHandler_PathsOnlyAndLimit(t *testing.T) {
	h, _ := newSearchHandler(map[string]string{
		"log1.txt": "/var/log1.txt",
		"log2.txt": "/var/log2.txt",
		"log3.txt": "/var/log3.txt",
	})

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "log", MaxResults: 2, PathsOnly: true})
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Found 3 files, showing first 2")
	assert.Contains(t, text, "/var/log1.txt\n")
	assert.Contains(t, text, "/var/log2.txt\n")
	assert.NotContains(t, text, "/var/log3.txt")
}

func Test_SearchHandler_SearchError(t *testing.T) {
	h, searcher := newSearchHandler(nil)
	searcher.err = errors.New("root unavailable")

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "x"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "root unavailable")
}

package tools

import (
	"fmt"
	"strings"

	"github.com/lexandro/findex/index"
)

// FormatEntries formats up to limit entries as human-readable text. When
// pathsOnly is set each line holds just the full path.
func FormatEntries(entries []index.Entry, limit int, pathsOnly bool) string {
	if len(entries) == 0 {
		return "No files matched."
	}

	shown := entries
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	var builder strings.Builder
	if len(shown) < len(entries) {
		builder.WriteString(fmt.Sprintf("Found %d files, showing first %d:\n\n", len(entries), len(shown)))
	} else {
		builder.WriteString(fmt.Sprintf("Found %d files:\n\n", len(shown)))
	}

	for _, entry := range shown {
		if pathsOnly {
			builder.WriteString(entry.Path)
			builder.WriteString("\n")
			continue
		}
		builder.WriteString(fmt.Sprintf("  %s  (%s)\n", entry.Name, entry.Path))
	}

	return builder.String()
}

// Package walker builds a name -> path FileIndex from a full directory traversal.
package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/lexandro/findex/ignore"
	"github.com/lexandro/findex/index"
)

// ErrRootUnavailable is returned when the root directory cannot be traversed at all.
var ErrRootUnavailable = errors.New("root directory unavailable")

// Options configures a Walker.
type Options struct {
	RootDir string
	Matcher *ignore.Matcher // nil disables all exclusions
	Logger  *slog.Logger
}

// Stats summarizes a single traversal.
type Stats struct {
	Entries  int // entries inserted, including names later overwritten
	Skipped  int // entries left out by exclusions or undecodable names
	Errors   int // unreadable entries and directories
	Duration time.Duration
}

// Walker enumerates a directory subtree into a FileIndex.
type Walker struct {
	rootDir string
	matcher *ignore.Matcher
	logger  *slog.Logger
}

// New creates a walker for the given options.
func New(options Options) *Walker {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{
		rootDir: options.RootDir,
		matcher: options.Matcher,
		logger:  logger,
	}
}

// RootDir returns the configured root directory.
func (w *Walker) RootDir() string {
	return w.rootDir
}

// Build walks the root directory and returns a freshly built index.
//
// Every entry below the root is recorded under its final path segment; a later
// entry with the same name replaces an earlier one. Entries of each directory
// are visited in lexical order, so collisions resolve deterministically.
// Directories matched by the skip name or the exclusions are omitted together
// with their subtree. A symlinked root is resolved first and paths are
// reported below the resolved directory. Unreadable entries and names that are not valid UTF-8
// are logged and skipped. Build only fails when the root itself is unusable
// or ctx is cancelled.
func (w *Walker) Build(ctx context.Context) (*index.FileIndex, Stats, error) {
	start := time.Now()
	var stats Stats

	rootDir, err := filepath.Abs(w.rootDir)
	if err != nil {
		return nil, stats, fmt.Errorf("%w: %w", ErrRootUnavailable, err)
	}
	// WalkDir does not descend into a symlinked root.
	rootDir, err = filepath.EvalSymlinks(rootDir)
	if err != nil {
		return nil, stats, fmt.Errorf("%w: %w", ErrRootUnavailable, err)
	}
	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, stats, fmt.Errorf("%w: %w", ErrRootUnavailable, err)
	}
	if !info.IsDir() {
		return nil, stats, fmt.Errorf("%w: not a directory: %s", ErrRootUnavailable, rootDir)
	}

	builder := index.NewBuilder()
	if w.matcher != nil && w.matcher.IsSkipName(filepath.Base(rootDir)) {
		w.logger.Info("root directory matches skip name, index is empty", "root", rootDir)
		stats.Duration = time.Since(start)
		return builder.Build(), stats, nil
	}

	err = filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Second call for a directory whose listing failed, or an entry that vanished.
			stats.Errors++
			w.logger.Warn("skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if path == rootDir {
			return nil
		}

		name := d.Name()
		if !utf8.ValidString(name) {
			stats.Skipped++
			w.logger.Warn("skipping entry with undecodable name", "path", strconv.Quote(path))
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if w.matcher != nil && w.matcher.ShouldSkipDir(path) {
				stats.Skipped++
				w.logger.Debug("skipped directory", "path", path)
				return filepath.SkipDir
			}
		} else if w.matcher != nil && w.matcher.ShouldIgnore(path, false) {
			stats.Skipped++
			return nil
		}

		builder.Add(name, path)
		stats.Entries++
		return nil
	})
	stats.Duration = time.Since(start)
	if err != nil {
		return nil, stats, fmt.Errorf("walking %s: %w", rootDir, err)
	}

	fileIndex := builder.Build()
	w.logger.Info("directory walk complete",
		"root", rootDir,
		"entries", stats.Entries,
		"names", fileIndex.Len(),
		"skipped", stats.Skipped,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)
	return fileIndex, stats, nil
}

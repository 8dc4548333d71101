package main

import (
	"context"
	"log/slog"

	"github.com/lexandro/findex/watcher"
)

// indexReloader reloads the resident index when the persisted file changed.
type indexReloader interface {
	ReloadIfChanged() (bool, error)
}

// handleIndexFileEvents reloads the resident index when the index file is
// replaced by another process. Events for the catalog's own saves are no-ops
// because the file state already matches the resident index.
func handleIndexFileEvents(ctx context.Context, events <-chan []watcher.DebouncedEvent, reloader indexReloader, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-events:
			if !ok {
				return
			}
			if !hasUpdate(batch) {
				continue
			}
			reloaded, err := reloader.ReloadIfChanged()
			if err != nil {
				logger.Warn("index file changed but could not be reloaded", "error", err)
				continue
			}
			if reloaded {
				logger.Info("reloaded index after external update")
			}
		}
	}
}

// hasUpdate reports whether a batch leaves a file in place to load.
func hasUpdate(batch []watcher.DebouncedEvent) bool {
	for _, event := range batch {
		if event.Op == watcher.OpCreate || event.Op == watcher.OpWrite {
			return true
		}
	}
	return false
}

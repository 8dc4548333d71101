package watcher

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a burst of events is reported.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reports changes to a single file.
// It watches the parent directory, because atomic replacement renames a new
// file over the old one and a watch on the old inode would miss it.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	path      string
	logger    *slog.Logger
}

// NewWatcher creates a watcher for filePath. The parent directory is created
// if it does not exist yet, so the file can appear later.
func NewWatcher(filePath string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	absolutePath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("resolving watched file: %w", err)
	}
	dir := filepath.Dir(absolutePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating watched directory: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		debouncer: NewDebouncer(debounce),
		path:      absolutePath,
		logger:    logger,
	}, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Events returns the channel that receives debounced events for the watched file.
func (w *Watcher) Events() <-chan []DebouncedEvent {
	return w.debouncer.Output()
}

// Start begins listening for file system events. Call this in a goroutine.
// It runs until the watcher is closed.
func (w *Watcher) Start() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				w.debouncer.Stop()
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				w.debouncer.Stop()
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// handleEvent forwards events concerning the watched file to the debouncer.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	var op EventOp
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpWrite
	case event.Has(fsnotify.Remove):
		op = OpRemove
	case event.Has(fsnotify.Rename):
		op = OpRename
	default:
		return
	}

	w.debouncer.Add(event.Name, op)
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

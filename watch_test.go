package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lexandro/findex/watcher"
)

type countingReloader struct {
	calls    atomic.Int32
	reloaded bool
	err      error
}

func (r *countingReloader) ReloadIfChanged() (bool, error) {
	r.calls.Add(1)
	return r.reloaded, r.err
}

func runEventLoop(t *testing.T, reloader indexReloader, batches ...[]watcher.DebouncedEvent) {
	t.Helper()
	events := make(chan []watcher.DebouncedEvent, len(batches))
	for _, batch := range batches {
		events <- batch
	}
	close(events)

	done := make(chan struct{})
	go func() {
		defer close(done)
		handleIndexFileEvents(context.Background(), events, reloader, testLogger())
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("event loop did not return after channel close")
	}
}

func Test_handleIndexFileEvents_ReloadsOnWriteOrCreate(t *testing.T) {
	reloader := &countingReloader{reloaded: true}
	runEventLoop(t, reloader,
		[]watcher.DebouncedEvent{{Path: "/cfg/index.json", Op: watcher.OpCreate}},
		[]watcher.DebouncedEvent{{Path: "/cfg/index.json", Op: watcher.OpWrite}},
	)
	assert.Equal(t, int32(2), reloader.calls.Load())
}

func Test_handleIndexFileEvents_IgnoresRemoval(t *testing.T) {
	reloader := &countingReloader{}
	runEventLoop(t, reloader,
		[]watcher.DebouncedEvent{{Path: "/cfg/index.json", Op: watcher.OpRemove}},
		[]watcher.DebouncedEvent{{Path: "/cfg/index.json", Op: watcher.OpRename}},
	)
	assert.Zero(t, reloader.calls.Load())
}

func Test_handleIndexFileEvents_ReloadErrorIsNotFatal(t *testing.T) {
	reloader := &countingReloader{err: errors.New("corrupt index")}
	runEventLoop(t, reloader,
		[]watcher.DebouncedEvent{{Path: "/cfg/index.json", Op: watcher.OpWrite}},
		[]watcher.DebouncedEvent{{Path: "/cfg/index.json", Op: watcher.OpWrite}},
	)
	assert.Equal(t, int32(2), reloader.calls.Load())
}

func Test_handleIndexFileEvents_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan []watcher.DebouncedEvent)

	done := make(chan struct{})
	go func() {
		defer close(done)
		handleIndexFileEvents(ctx, events, &countingReloader{}, testLogger())
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("event loop did not stop on cancellation")
	}
}

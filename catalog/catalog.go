// Package catalog serves name searches against the current FileIndex and
// owns the build-then-swap lifecycle of that index.
//
// The current index is held in memory and shared by all searches. It is
// populated on first use (by loading the persisted index, or by walking the
// tree and saving when none exists) and replaced wholesale by Rebuild or by a
// reload of a persisted file that changed on disk.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/lexandro/findex/ignore"
	"github.com/lexandro/findex/index"
	"github.com/lexandro/findex/metrics"
	"github.com/lexandro/findex/walker"
)

// DefaultCacheSize is the number of query results kept per index generation.
const DefaultCacheSize = 256

// ErrNoIndex is returned when no index is resident yet.
var ErrNoIndex = errors.New("no index loaded")

// Store persists the index. *store.Store is the implementation.
type Store interface {
	Path() string
	Exists() bool
	Stat() (os.FileInfo, error)
	Save(fileIndex *index.FileIndex) error
	Load() (*index.FileIndex, error)
}

// Options configures a Catalog.
type Options struct {
	Walker *walker.Walker
	Store  Store
	// Matcher, if set, re-reads its ignore file before every rebuild.
	Matcher *ignore.Matcher
	// MinimumScore gates inclusion; zero means index.MinimumScore.
	MinimumScore int
	// CacheSize bounds the query result cache; negative disables it, zero means DefaultCacheSize.
	CacheSize int
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// RebuildResult describes one walk-and-save cycle.
type RebuildResult struct {
	CycleID    string
	Names      int // distinct names in the new index
	Walk       walker.Stats
	Duration   time.Duration
	FinishedAt time.Time
	Err        error
}

// Status is a point-in-time view of the catalog.
type Status struct {
	Resident     bool
	Names        int
	Generation   uint64
	LoadedAt     time.Time
	IndexPath    string
	IndexExists  bool
	IndexSize    int64
	IndexModTime time.Time
	LastRebuild  *RebuildResult
}

// snapshot is an installed index together with the file state it corresponds to.
type snapshot struct {
	index      *index.FileIndex
	generation uint64
	loadedAt   time.Time
	modTime    time.Time
	size       int64
}

type cacheKey struct {
	generation uint64
	query      string // lowercased
}

// Catalog owns the current index. It is safe for concurrent use.
type Catalog struct {
	walker       *walker.Walker
	store        Store
	matcher      *ignore.Matcher
	minimumScore int
	metrics      *metrics.Metrics
	logger       *slog.Logger

	current     atomic.Pointer[snapshot]
	generation  atomic.Uint64
	lastRebuild atomic.Pointer[RebuildResult]

	// rebuildMu serializes rebuilds, first-use population and reloads.
	rebuildMu sync.Mutex
	firstUse  singleflight.Group
	cache     *lru.Cache[cacheKey, []index.Entry]
}

// New creates a catalog. Nothing is loaded until the first search or rebuild.
func New(options Options) (*Catalog, error) {
	if options.Walker == nil || options.Store == nil {
		return nil, fmt.Errorf("catalog requires a walker and a store")
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	minimumScore := options.MinimumScore
	if minimumScore == 0 {
		minimumScore = index.MinimumScore
	}

	c := &Catalog{
		walker:       options.Walker,
		store:        options.Store,
		matcher:      options.Matcher,
		minimumScore: minimumScore,
		metrics:      options.Metrics,
		logger:       logger,
	}

	cacheSize := options.CacheSize
	if cacheSize == 0 {
		cacheSize = DefaultCacheSize
	}
	if cacheSize > 0 {
		cache, err := lru.New[cacheKey, []index.Entry](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating result cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// SearchFiles returns the (name, path) pairs whose stem contains query,
// case-insensitively. The first call may load the persisted index or, when
// none exists, walk the whole tree and save it before answering. Load and
// build failures are returned as errors; no partial result is produced.
func (c *Catalog) SearchFiles(ctx context.Context, query string) ([]index.Entry, error) {
	snap, err := c.ensure(ctx)
	if err != nil {
		c.metrics.ObserveSearch(metrics.CacheMiss, 0, err, 0)
		return nil, err
	}

	start := time.Now()
	key := cacheKey{generation: snap.generation, query: strings.ToLower(query)}
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			c.metrics.ObserveSearch(metrics.CacheHit, len(cached), nil, time.Since(start))
			return slices.Clone(cached), nil
		}
	}

	results := snap.index.Search(query, c.minimumScore)
	if c.cache != nil {
		c.cache.Add(key, results)
	}
	elapsed := time.Since(start)
	c.metrics.ObserveSearch(metrics.CacheMiss, len(results), nil, elapsed)
	c.logger.Debug("search complete", "query", query, "results", len(results), "elapsed", elapsed)
	return slices.Clone(results), nil
}

// Index returns the current index, populating it on first use like SearchFiles.
func (c *Catalog) Index(ctx context.Context) (*index.FileIndex, error) {
	snap, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return snap.index, nil
}

// Current returns the resident index without triggering a load or build.
func (c *Catalog) Current() (*index.FileIndex, error) {
	snap := c.current.Load()
	if snap == nil {
		return nil, ErrNoIndex
	}
	return snap.index, nil
}

// ensure returns the resident snapshot, loading or building it on first use.
// Concurrent first-use callers share one load or build. The shared work is
// detached from any single caller's cancellation; a cancelled caller stops
// waiting and the others still get the result.
func (c *Catalog) ensure(ctx context.Context) (*snapshot, error) {
	if snap := c.current.Load(); snap != nil {
		return snap, nil
	}

	buildCtx := context.WithoutCancel(ctx)
	results := c.firstUse.DoChan("ensure", func() (any, error) {
		c.rebuildMu.Lock()
		defer c.rebuildMu.Unlock()

		// A rebuild may have installed an index while we waited for the lock.
		if snap := c.current.Load(); snap != nil {
			return snap, nil
		}
		if c.store.Exists() {
			c.logger.Info("loading existing index", "path", c.store.Path())
			if err := c.reloadLocked(); err != nil {
				return nil, err
			}
		} else {
			c.logger.Info("creating new index", "path", c.store.Path(), "root", c.walker.RootDir())
			if _, err := c.rebuildLocked(buildCtx); err != nil {
				return nil, err
			}
		}
		return c.current.Load(), nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*snapshot), nil
	}
}

// Rebuild walks the tree, atomically replaces the persisted index and swaps
// the resident index. On failure both stay as they were.
func (c *Catalog) Rebuild(ctx context.Context) (RebuildResult, error) {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()
	return c.rebuildLocked(ctx)
}

func (c *Catalog) rebuildLocked(ctx context.Context) (RebuildResult, error) {
	start := time.Now()
	result := RebuildResult{CycleID: uuid.NewString()}
	logger := c.logger.With("cycle", result.CycleID)

	finish := func(err error) (RebuildResult, error) {
		result.Duration = time.Since(start)
		result.FinishedAt = time.Now()
		result.Err = err
		c.lastRebuild.Store(&result)
		c.metrics.ObserveRefresh(result.Names, result.Walk.Skipped, result.Walk.Errors, err, result.Duration)
		return result, err
	}

	if c.matcher != nil {
		c.matcher.Reload()
	}

	fileIndex, stats, err := c.walker.Build(ctx)
	result.Walk = stats
	if err != nil {
		logger.Error("index build failed", "error", err)
		return finish(fmt.Errorf("building index: %w", err))
	}
	result.Names = fileIndex.Len()

	if err := c.store.Save(fileIndex); err != nil {
		logger.Error("index save failed", "path", c.store.Path(), "error", err)
		return finish(fmt.Errorf("saving index: %w", err))
	}

	info, err := c.store.Stat()
	if err != nil {
		logger.Warn("cannot stat saved index", "path", c.store.Path(), "error", err)
	}
	c.install(fileIndex, info)

	logger.Info("index rebuilt",
		"names", result.Names,
		"path", c.store.Path(),
		"duration", time.Since(start),
	)
	return finish(nil)
}

// ReloadIfChanged loads the persisted index when its modification time or
// size differs from the resident one. It reports whether a reload happened.
// A failed reload keeps the resident index.
func (c *Catalog) ReloadIfChanged() (bool, error) {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()

	info, err := c.store.Stat()
	if err != nil {
		return false, fmt.Errorf("checking index file: %w", err)
	}
	if snap := c.current.Load(); snap != nil && snap.modTime.Equal(info.ModTime()) && snap.size == info.Size() {
		return false, nil
	}
	if err := c.reloadLocked(); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Catalog) reloadLocked() error {
	// Stat first: a replacement racing the load shows up as a changed file next time.
	info, err := c.store.Stat()
	if err != nil {
		c.logger.Debug("cannot stat index before load", "path", c.store.Path(), "error", err)
	}
	fileIndex, err := c.store.Load()
	if err != nil {
		c.metrics.ObserveReload(0, err)
		return fmt.Errorf("loading index: %w", err)
	}
	c.install(fileIndex, info)
	c.metrics.ObserveReload(fileIndex.Len(), nil)
	c.logger.Info("index loaded", "path", c.store.Path(), "names", fileIndex.Len())
	return nil
}

// install makes fileIndex the current index. info describes the persisted
// file it matches and may be nil.
func (c *Catalog) install(fileIndex *index.FileIndex, info os.FileInfo) {
	snap := &snapshot{
		index:      fileIndex,
		generation: c.generation.Add(1),
		loadedAt:   time.Now(),
	}
	if info != nil {
		snap.modTime = info.ModTime()
		snap.size = info.Size()
	}
	c.current.Store(snap)
	if c.cache != nil {
		c.cache.Purge()
	}
}

// LastRebuild returns the outcome of the most recent rebuild, or nil.
func (c *Catalog) LastRebuild() *RebuildResult {
	return c.lastRebuild.Load()
}

// Status reports the resident index and the persisted file state.
func (c *Catalog) Status() Status {
	status := Status{
		IndexPath:   c.store.Path(),
		LastRebuild: c.lastRebuild.Load(),
	}
	if snap := c.current.Load(); snap != nil {
		status.Resident = true
		status.Names = snap.index.Len()
		status.Generation = snap.generation
		status.LoadedAt = snap.loadedAt
	}
	if info, err := c.store.Stat(); err == nil {
		status.IndexExists = true
		status.IndexSize = info.Size()
		status.IndexModTime = info.ModTime()
	}
	return status
}

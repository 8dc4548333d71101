package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lexandro/findex/catalog"
	"github.com/lexandro/findex/config"
	"github.com/lexandro/findex/ignore"
	"github.com/lexandro/findex/metrics"
	"github.com/lexandro/findex/store"
	"github.com/lexandro/findex/walker"
)

// app wires the indexer components for one configuration.
type app struct {
	cfg      config.Config
	rootDir  string
	logger   *slog.Logger
	registry *prometheus.Registry
	store    *store.Store
	catalog  *catalog.Catalog
}

func newApp(cfg config.Config, logger *slog.Logger) (*app, error) {
	rootDir, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", cfg.Root, err)
	}
	// The matcher must see the same paths the walker produces. A root that
	// cannot be resolved yet is kept as is and reported by the walk.
	if resolved, err := filepath.EvalSymlinks(rootDir); err == nil {
		rootDir = resolved
	}

	matcher, err := ignore.NewMatcher(ignore.MatcherOptions{
		RootDir:         rootDir,
		SkipName:        cfg.SkipName,
		ExcludePatterns: cfg.Exclude,
		IgnoreFile:      cfg.IgnoreFile,
	})
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	indexStore := store.New(cfg.IndexPath)

	cat, err := catalog.New(catalog.Options{
		Walker: walker.New(walker.Options{
			RootDir: rootDir,
			Matcher: matcher,
			Logger:  logger,
		}),
		Store:        indexStore,
		Matcher:      matcher,
		MinimumScore: cfg.MinimumScore,
		CacheSize:    cfg.CacheSize,
		Metrics:      metrics.New(registry),
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		rootDir:  rootDir,
		logger:   logger,
		registry: registry,
		store:    indexStore,
		catalog:  cat,
	}, nil
}

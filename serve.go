package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lexandro/findex/catalog"
	"github.com/lexandro/findex/config"
	"github.com/lexandro/findex/metrics"
	"github.com/lexandro/findex/server"
	"github.com/lexandro/findex/tools"
	"github.com/lexandro/findex/watcher"
)

func newServeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio with background refresh",
		Long: `Serve file name lookups over MCP on stdin/stdout while rebuilding the
index every refresh interval. Logs go to stderr or --log-file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.cfg)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	// Stdout belongs to the MCP transport.
	logger := setupLogger(cfg.LogLevel, cfg.LogFile)
	startTime := time.Now()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("starting findex",
		"root", a.rootDir,
		"skipName", cfg.SkipName,
		"indexPath", a.store.Path(),
		"refreshInterval", cfg.RefreshInterval,
	)

	mcpServer := server.Setup(
		&tools.SearchHandler{Searcher: a.catalog, Logger: logger},
		&tools.FilesHandler{Source: a.catalog, Logger: logger},
		&tools.StatusHandler{
			Source:          a.catalog,
			StartTime:       startTime,
			RootDir:         a.rootDir,
			RefreshInterval: cfg.RefreshInterval,
			Logger:          logger,
		},
		&tools.ReindexHandler{DoReindex: a.catalog.Rebuild, Logger: logger},
	)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("MCP server starting on stdio")
		err := mcpServer.Run(ctx, &mcp.StdioTransport{})
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			logger.Warn("MCP session ended", "error", err)
		}
		// Client hung up; stop the background work too.
		return errClientClosed
	})

	group.Go(func() error {
		runPeriodicRefresh(ctx, cfg.StartupDelay, cfg.RefreshInterval, func(ctx context.Context) error {
			_, err := a.catalog.Rebuild(ctx)
			return err
		}, logger)
		return nil
	})

	if cfg.WatchIndex {
		startIndexWatcher(ctx, group, a.catalog, a.store.Path(), logger)
	}

	if cfg.MetricsAddr != "" {
		group.Go(func() error {
			return metrics.Serve(ctx, cfg.MetricsAddr, a.registry, logger)
		})
	}

	err = group.Wait()
	if errors.Is(err, errClientClosed) {
		logger.Info("MCP client disconnected, shutting down")
		return nil
	}
	return err
}

var errClientClosed = errors.New("mcp client closed the connection")

// startIndexWatcher follows external replacements of the index file. A
// watcher that cannot start is logged and skipped.
func startIndexWatcher(ctx context.Context, group *errgroup.Group, cat *catalog.Catalog, indexPath string, logger *slog.Logger) {
	fileWatcher, err := watcher.NewWatcher(indexPath, watcher.DefaultDebounce, logger)
	if err != nil {
		logger.Warn("failed to start index file watcher, continuing without reloads", "error", err)
		return
	}

	go fileWatcher.Start()
	group.Go(func() error {
		handleIndexFileEvents(ctx, fileWatcher.Events(), cat, logger)
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		return fileWatcher.Close()
	})
}

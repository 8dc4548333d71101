package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexandro/findex/config"
	"github.com/lexandro/findex/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// cliOptions holds the config file path and the flag overrides shared by all subcommands.
type cliOptions struct {
	configPath string
	overrides  config.Config
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:   "findex",
		Short: "Background file name indexer",
		Long: `findex walks a directory tree, keeps a name -> path index on disk,
refreshes it in the background and answers file name lookups.

Run without a subcommand to start the MCP server on stdio.`,
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.cfg)
		},
	}
	cmd.SetVersionTemplate("findex version {{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default: <user config dir>/findex/config.yaml)")
	flags.StringVar(&opts.overrides.Root, "root", "", "Directory tree to index (default: home directory)")
	flags.StringVar(&opts.overrides.SkipName, "skip-name", "", "Directory name whose subtree is never indexed (default: Library)")
	flags.StringArrayVar(&opts.overrides.Exclude, "exclude", nil, "Extra exclude glob (repeatable)")
	flags.StringVar(&opts.overrides.IgnoreFile, "ignore-file", "", "Gitignore-syntax file read from the root (default: .findexignore)")
	flags.IntVar(&opts.overrides.MinimumScore, "min-score", 0, "Minimum match score, 1-1000 (default: 20)")
	flags.DurationVar(&opts.overrides.RefreshInterval, "interval", 0, "Background refresh interval (default: 1h)")
	flags.DurationVar(&opts.overrides.StartupDelay, "startup-delay", 0, "Delay before the first background refresh")
	flags.StringVar(&opts.overrides.IndexPath, "index-path", "", "Persisted index file (default: <user config dir>/findex/index.json)")
	flags.IntVar(&opts.overrides.CacheSize, "cache-size", 0, "Query result cache entries, negative disables (default: 256)")
	flags.BoolVar(&opts.overrides.WatchIndex, "watch-index", true, "Reload the index when the file is replaced by another process")
	flags.StringVar(&opts.overrides.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	flags.StringVar(&opts.overrides.LogFile, "log-file", "", "Log file path (default: stderr)")
	flags.StringVar(&opts.overrides.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. 127.0.0.1:9464)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newIndexCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newRegisterCmd())

	return cmd
}

// loadConfig reads the config file and environment, then applies every flag
// the user set explicitly.
func loadConfig(cmd *cobra.Command, opts *cliOptions) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	o := opts.overrides
	if flags.Changed("root") {
		cfg.Root = o.Root
	}
	if flags.Changed("skip-name") {
		cfg.SkipName = o.SkipName
	}
	if flags.Changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, o.Exclude...)
	}
	if flags.Changed("ignore-file") {
		cfg.IgnoreFile = o.IgnoreFile
	}
	if flags.Changed("min-score") {
		cfg.MinimumScore = o.MinimumScore
	}
	if flags.Changed("interval") {
		cfg.RefreshInterval = o.RefreshInterval
	}
	if flags.Changed("startup-delay") {
		cfg.StartupDelay = o.StartupDelay
	}
	if flags.Changed("index-path") {
		cfg.IndexPath = o.IndexPath
	}
	if flags.Changed("cache-size") {
		cfg.CacheSize = o.CacheSize
	}
	if flags.Changed("watch-index") {
		cfg.WatchIndex = o.WatchIndex
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.LogLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = o.LogFile
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = o.MetricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupLogger creates an slog.Logger writing to stderr or a file.
func setupLogger(level string, logFile string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var writer *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
			writer = os.Stderr
		} else {
			writer = f
		}
	} else {
		writer = os.Stderr
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}

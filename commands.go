package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lexandro/findex/index"
	"github.com/lexandro/findex/tools"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit  int
	format string // "text", "json"
}

func newSearchCmd(opts *cliOptions) *cobra.Command {
	var searchOpts searchOptions

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Look up files whose name contains the query",
		Long: `Match the query case-insensitively against every indexed file name with
its final extension removed and print name<TAB>path lines sorted by path.

The first run builds and saves the index if none exists yet. Without a query
every indexed file is printed.

Examples:
  findex search report
  findex search "tax 2024" --limit 10
  findex search notes --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts, strings.Join(args, " "), searchOpts)
		},
	}

	cmd.Flags().IntVarP(&searchOpts.limit, "limit", "n", 0, "Maximum number of results (0: no limit)")
	cmd.Flags().StringVarP(&searchOpts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(cmd *cobra.Command, opts *cliOptions, query string, searchOpts searchOptions) error {
	if searchOpts.format != "text" && searchOpts.format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", searchOpts.format)
	}

	logger := setupLogger(opts.cfg.LogLevel, opts.cfg.LogFile)
	a, err := newApp(opts.cfg, logger)
	if err != nil {
		return err
	}

	results, err := a.catalog.SearchFiles(cmd.Context(), query)
	if err != nil {
		return err
	}
	slices.SortFunc(results, func(x, y index.Entry) int {
		return strings.Compare(x.Path, y.Path)
	})
	if searchOpts.limit > 0 && len(results) > searchOpts.limit {
		results = results[:searchOpts.limit]
	}

	out := cmd.OutOrStdout()
	if searchOpts.format == "json" {
		if results == nil {
			results = []index.Entry{}
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}
	for _, entry := range results {
		fmt.Fprintf(out, "%s\t%s\n", entry.Name, entry.Path)
	}
	return nil
}

func newIndexCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Walk the root now and save a fresh index",
		Long: `Run one refresh cycle: walk the root, atomically replace the persisted
index file and report what was found. A running server picks the new file up
through its index file watcher.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(opts.cfg.LogLevel, opts.cfg.LogFile)
			a, err := newApp(opts.cfg, logger)
			if err != nil {
				return err
			}

			result, err := a.catalog.Rebuild(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Indexed %s names (%s entries, %d skipped, %d errors) in %s\n",
				humanize.Comma(int64(result.Names)),
				humanize.Comma(int64(result.Walk.Entries)),
				result.Walk.Skipped,
				result.Walk.Errors,
				result.Duration.Round(time.Millisecond),
			)
			fmt.Fprintf(out, "Saved to %s\n", a.store.Path())
			return nil
		},
	}
}

func newStatusCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the persisted index state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(opts.cfg.LogLevel, opts.cfg.LogFile)
			a, err := newApp(opts.cfg, logger)
			if err != nil {
				return err
			}

			// Load without building so the report reflects the file on disk.
			if a.store.Exists() {
				if _, err := a.catalog.ReloadIfChanged(); err != nil {
					return err
				}
			}

			status := a.catalog.Status()
			fmt.Fprint(cmd.OutOrStdout(), tools.FormatStatus(status, a.rootDir, opts.cfg.RefreshInterval, 0, 0))
			return nil
		},
	}
}

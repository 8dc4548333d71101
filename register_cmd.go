package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexandro/findex/register"
)

func newRegisterCmd() *cobra.Command {
	var serverName string

	cmd := &cobra.Command{
		Use:   "register <project|user> [directory] [-- server args...]",
		Short: "Add findex to an MCP client configuration",
		Long: `Write an mcpServers entry that launches this binary.

  project  <directory>/.mcp.json (default directory: .)
  user     ~/.claude.json

Arguments after -- are passed to the server on every launch.

Examples:
  findex register project
  findex register user -- --root ~/Documents --interval 30m`,
		Args: cobra.MinimumNArgs(1),
		// Registration does not need a valid indexer configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			positional, serverArgs := args, []string(nil)
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				positional, serverArgs = args[:dash], args[dash:]
			}
			if len(positional) == 0 || len(positional) > 2 {
				return fmt.Errorf("expected a scope and an optional directory, got %d arguments", len(positional))
			}

			scope, err := register.ParseScope(positional[0])
			if err != nil {
				return err
			}
			opts := register.Options{
				Scope:      scope,
				ServerName: serverName,
				ServerArgs: serverArgs,
			}
			if len(positional) == 2 {
				if scope != register.ScopeProject {
					return fmt.Errorf("a directory is only accepted for the project scope")
				}
				opts.Directory = positional[1]
			}

			result, err := register.Register(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %q in %s\n", result.ServerName, result.ConfigPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverName, "name", "", "Server name in the client config (default: derived from the binary name)")
	return cmd
}

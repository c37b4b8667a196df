package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"github.com/wesm/claudesessions/internal/config"
	"github.com/wesm/claudesessions/internal/store"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newRootCommand builds the command tree. Running the root
// command without a subcommand starts the server.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "claudesessions",
		Short: "Browse and manage Claude Code sessions",
		Long: `claudesessions serves the projects and session transcripts under
~/.claude over a local JSON API and pushes live change events to
the browser UI.

Environment variables:
  CLAUDE_CONFIG_DIR     Claude Code config directory (default ~/.claude)
  CLAUDESESSIONS_HOST   Host to bind to
  PORT                  Port to listen on
  CORS_ORIGIN           Browser origin allowed to call the API

Values may also be set in a .env file in the working directory.`,
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newServeCommand(),
		newProjectsCommand(),
		newSessionsCommand(),
		newRmCommand(),
		newStatsCommand(),
		newVersionCommand(),
	)
	return root
}

// loadConfig builds the Config once per invocation from defaults,
// .env, the environment and the flags set on cmd.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return store.New(cfg), nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(),
				"claudesessions %s (commit %s, built %s)\n",
				version, commit, buildDate)
		},
	}
}

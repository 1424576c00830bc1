// agenthub: task management MCP server for multi-agent work.
//
// It serves the 4genthub tool surface (manage_project, manage_task,
// manage_context, call_agent, ...) over stdio for MCP hosts, or over
// HTTP together with the REST summary endpoints the frontend polls.
//
// Usage:
//
//	agenthub serve            # MCP over stdio
//	agenthub serve --http     # REST + streamable MCP on HTTP_ADDR
//	agenthub token --user u1  # mint an access token (auth enabled)
//	agenthub update           # self-update from GitHub releases
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phamhung075/4genthub-sub014/internal/config"
	"github.com/phamhung075/4genthub-sub014/internal/logging"
	"github.com/phamhung075/4genthub-sub014/internal/server"
	"github.com/phamhung075/4genthub-sub014/internal/updater"
)

func main() {
	root := &cobra.Command{
		Use:           "agenthub",
		Short:         "Task management MCP server",
		Long:          "agenthub manages projects, branches, tasks, subtasks and hierarchical contexts for multi-agent work, exposed as MCP tools and a REST fast path.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd(), tokenCmd(), updateCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var useHTTP bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the server (stdio by default, --http for the web surface)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			srv, cleanup, err := server.New(cfg, log)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			// Best-effort version check; never blocks serving.
			go notifyUpdates()

			if useHTTP {
				return srv.ServeHTTP(context.Background())
			}
			return srv.ServeStdio()
		},
	}
	cmd.Flags().BoolVar(&useHTTP, "http", false, "serve REST + streamable MCP over HTTP instead of stdio")
	return cmd
}

func tokenCmd() *cobra.Command {
	var user string
	var scopes []string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for the HTTP surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.AuthEnabled {
				return fmt.Errorf("auth is disabled: set AUTH_ENABLED=true and JWT_SECRET")
			}

			srv, cleanup, err := server.New(cfg, nil)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			tok, err := srv.Auth().Issue(user, scopes)
			if err != nil {
				return err
			}
			fmt.Println(tok.AccessToken)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user ID the token authenticates (required)")
	cmd.Flags().StringSliceVar(&scopes, "scopes", nil, "scopes to embed, e.g. tasks:read,tasks:write")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Update agenthub to the latest release",
		RunE: func(cmd *cobra.Command, args []string) error {
			result := updater.CheckVersion(server.Version)
			if !result.UpdateAvailable {
				fmt.Fprintf(os.Stderr, "Already at the latest version (v%s)\n", result.CurrentVersion)
				return nil
			}

			fmt.Fprintf(os.Stderr, "Updating v%s → v%s ...\n", result.CurrentVersion, result.LatestVersion)
			if err := updater.SelfUpdate(server.Version); err != nil {
				return fmt.Errorf("update failed (download manually from %s): %w", result.ReleaseURL, err)
			}
			fmt.Fprintf(os.Stderr, "Updated to v%s. Restart agenthub to use it.\n", result.LatestVersion)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("agenthub v%s\n", server.Version)
		},
	}
}

// notifyUpdates prints an update notice to stderr so it never touches
// stdout, which carries the MCP wire protocol in stdio mode.
func notifyUpdates() {
	result := updater.CheckVersion(server.Version)
	if result.UpdateAvailable {
		fmt.Fprint(os.Stderr, strings.Join([]string{
			"",
			"  Update available: v" + result.CurrentVersion + " → v" + result.LatestVersion,
			"  Run: agenthub update",
			"  Release: " + result.ReleaseURL,
			"", "",
		}, "\n"))
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/helm/internal/api"
	"github.com/kalambet/helm/internal/config"
	"github.com/kalambet/helm/internal/console"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open the interactive control panel",
	Long: `Open the interactive control panel. By default it drives the running
server; with --local it runs its own session against the data directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		local, _ := cmd.Flags().GetBool("local")
		if local {
			return runLocalConsole()
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		cat, err := client.catalog(cmd.Context())
		if err != nil {
			return fmt.Errorf("%w\nhint: start the server or use `helm console --local`", err)
		}
		return console.Run(cmd.Context(), client, cat)
	},
}

func runLocalConsole() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// The console owns the terminal; only warnings reach stderr.
	setupLogging(cfg.Log.Level, true)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	a.start(ctx)

	err = console.Run(ctx, a.session, a.catalog)
	stop()
	a.close()
	return err
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the interpreter over MCP on stdin/stdout",
	Long: `Serve the interpreter over the Model Context Protocol on stdin/stdout,
so an agent can drive the panel with the same commands a speaker would use.
Logs go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		setupLogging(cfg.Log.Level, false)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := openApp(cfg)
		if err != nil {
			return err
		}
		a.start(ctx)

		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Session:  a.session,
			Searcher: a.searcher,
		}, version)
		slog.Info("MCP server started (stdio transport)", "areas", len(a.catalog.Areas))

		err = server.NewStdioServer(mcpSrv).Listen(ctx, os.Stdin, os.Stdout)
		stop()
		a.close()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
			return fmt.Errorf("MCP stdio server: %w", err)
		}
		return nil
	},
}

func init() {
	consoleCmd.Flags().Bool("local", false, "run an in-process session instead of connecting to the server")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/helm/internal/api"
	"github.com/kalambet/helm/internal/config"
	"github.com/kalambet/helm/internal/session"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the helm server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running helm server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show helm server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "helm.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "helm version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level, false)

	if _, created, err := config.EnsureAPIToken(&cfg); err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	} else if created {
		slog.Info("generated new API bearer token")
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	a.start(ctx)
	defer a.close()
	slog.Info("session started", "areas", len(a.catalog.Areas), "search_backend", cfg.Search.Backend)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr: addr,
		Handler: api.NewHandler(api.Deps{
			Session:   a.session,
			Searcher:  a.searcher,
			Documents: a.store,
			Token:     cfg.API.Token,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		printSuccess("helm listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		printStep("shutting down...")
	case err := <-errCh:
		stop()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	stop()
	return err
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		return fmt.Errorf("helm is not running (no PID file): %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("could not find process %d: %w", pid, err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		removePIDFile(pidPath)
		return fmt.Errorf("could not stop helm (PID %d): %w", pid, err)
	}

	printSuccess("Sent stop signal to helm (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	printStatus("Search", "%s", cfg.Search.Backend)

	client, err := newAPIClient()
	if err != nil {
		printStatus("Server", "stopped")
		return nil
	}
	client.httpClient.Timeout = 2 * time.Second

	snap, err := client.Snapshot(ctx)
	if err != nil {
		printStatus("Server", "stopped")
		return nil
	}
	printStatus("Server", "running on port %d", cfg.Server.Port)
	printStatus("View", "%s", crumbLine(snap))
	printStatus("Voice", "%s", voiceLine(snap.Voice))
	return nil
}

func voiceLine(v session.Voice) string {
	if !v.Enabled || v.Session == nil {
		return "off"
	}
	return fmt.Sprintf("%s (session %s)", v.Session.Status, v.Session.ID)
}

func crumbLine(snap session.Snapshot) string {
	labels := make([]string, len(snap.Breadcrumbs))
	for i, c := range snap.Breadcrumbs {
		labels[i] = c.Label
	}
	return strings.Join(labels, " / ")
}

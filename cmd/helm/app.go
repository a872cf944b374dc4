package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/kalambet/helm/internal/catalog"
	"github.com/kalambet/helm/internal/config"
	"github.com/kalambet/helm/internal/ingest"
	"github.com/kalambet/helm/internal/search"
	"github.com/kalambet/helm/internal/session"
	"github.com/kalambet/helm/internal/storage"
)

// app is one in-process interpreter: the store, the catalog it was synced
// from, the search backend, the session, and the ingest worker.
type app struct {
	cfg      config.Config
	store    *storage.Store
	catalog  *catalog.Catalog
	searcher search.Searcher
	session  *session.Session
	worker   *ingest.Worker

	wg sync.WaitGroup
}

func setupLogging(level string, quiet bool) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	if quiet && lvl < slog.LevelWarn {
		lvl = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func loadCatalog(cfg config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog.Path == "" {
		return catalog.Default(), nil
	}
	c, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return c, nil
}

// openApp opens storage, syncs the catalog into it and builds the session.
// Call start to run the session and worker, and close when done.
func openApp(cfg config.Config) (*app, error) {
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	if err := store.SyncCatalog(cat); err != nil {
		store.Close()
		return nil, fmt.Errorf("syncing catalog: %w", err)
	}
	if n, err := store.RequeueRunning(); err != nil {
		slog.Warn("failed to requeue interrupted jobs", "error", err)
	} else if n > 0 {
		slog.Info("requeued interrupted jobs", "count", n)
	}
	if counts, err := store.JobCounts(); err == nil && counts[storage.JobPending] > 0 {
		slog.Info("ingest backlog", "pending", counts[storage.JobPending], "failed", counts[storage.JobFailed])
	}

	var searcher search.Searcher
	switch cfg.Search.Backend {
	case config.BackendCatalog:
		searcher = search.NewCatalogSearcher(cat, cfg.Search.Delay)
	default:
		searcher = search.NewStoreSearcher(store, cat.Has)
	}

	sess, err := session.New(session.Config{
		Catalog:        cat,
		Searcher:       searcher,
		PromptDuration: cfg.Voice.PromptDuration,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	extractor := ingest.NewExtractor(&http.Client{Timeout: 15 * time.Second})
	return &app{
		cfg:      cfg,
		store:    store,
		catalog:  cat,
		searcher: searcher,
		session:  sess,
		worker:   ingest.NewWorker(store, extractor, cfg.Ingest.PollInterval),
	}, nil
}

// start runs the session loop and the ingest worker until ctx is done.
func (a *app) start(ctx context.Context) {
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		if err := a.session.Run(ctx); err != nil {
			slog.Error("session stopped", "error", err)
		}
	}()
	go func() {
		defer a.wg.Done()
		a.worker.Run(ctx)
	}()
}

// close stops the session, waits for the background goroutines and closes
// storage. The context passed to start must already be cancelled or the
// worker keeps running.
func (a *app) close() {
	a.session.Close()
	a.wg.Wait()
	if err := a.store.Close(); err != nil {
		slog.Warn("closing storage", "error", err)
	}
}

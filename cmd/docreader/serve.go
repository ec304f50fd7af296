package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docreader/internal/api"
	"github.com/dgallion1/docreader/internal/config"
	"github.com/dgallion1/docreader/internal/library"
	"github.com/dgallion1/docreader/internal/metrics"
	"github.com/dgallion1/docreader/internal/parser"
	"github.com/dgallion1/docreader/internal/session"
	"github.com/dgallion1/docreader/internal/tracker"
)

func serveCMD() *cobra.Command {
	var port, contentDir string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the reader HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Port = port
			}
			if contentDir != "" {
				cfg = cfg.WithContentDir(contentDir)
			}
			return runServer(cfg)
		},
	}
	serve.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	serve.Flags().StringVar(&contentDir, "content", "", "content directory (overrides CONTENT_DIR)")
	return serve
}

func runServer(cfg config.Config) error {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	lib := library.New(libraryOptions(cfg, log, m.ArticleLoaded))
	if err := lib.Load(ctx); err != nil {
		return err
	}

	sessions := session.NewStore(session.Options{
		TTL:         cfg.SessionTTL,
		MaxSessions: cfg.MaxSessions,
		Zone: tracker.TriggerZone{
			TopOffset:      cfg.TriggerTopOffset,
			BottomFraction: cfg.TriggerBottomFraction,
		},
		HeaderOffset:   cfg.HeaderOffset,
		ViewportHeight: cfg.ViewportHeight,
		Logger:         log,
		Recorder:       m,
	})
	sessions.Start(ctx)
	unsubscribe := lib.Subscribe(sessions.ArticleReloaded)

	var watcher *library.Watcher
	if cfg.WatchContent {
		w, err := library.NewWatcher(lib, cfg.ContentDir, cfg.CatalogFile, cfg.WatchDebounce, log)
		if err != nil {
			return fmt.Errorf("content watcher: %w", err)
		}
		if err := w.Start(ctx); err != nil {
			// Articles are already loaded; live reload is optional.
			log.Warn("content watching disabled", "error", err)
			w.Stop()
		} else {
			watcher = w
		}
	}

	srv := api.NewServer(lib, sessions, m, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		if watcher != nil {
			watcher.Stop()
		}
		unsubscribe()
		sessions.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting docreader", "port", cfg.Port, "content_dir", cfg.ContentDir, "articles", len(lib.All()))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func libraryOptions(cfg config.Config, log *slog.Logger, onLoad func(*library.Article)) library.Options {
	return library.Options{
		Dir:            cfg.ContentDir,
		CatalogFile:    cfg.CatalogFile,
		WordsPerMinute: cfg.WordsPerMinute,
		Concurrency:    cfg.LoadConcurrency,
		Parser:         parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
		Logger:         log,
		OnLoad:         onLoad,
	}
}

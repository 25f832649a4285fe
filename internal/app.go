// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/puchi-app/puchi/internal/api"
	"github.com/puchi-app/puchi/internal/journal"
	"github.com/puchi-app/puchi/internal/mcpserver"
	"github.com/puchi-app/puchi/internal/media"
	"github.com/puchi-app/puchi/internal/sse"
	"github.com/puchi-app/puchi/internal/store"
)

// Run starts the journal server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("media_path", cfg.Media.Path),
		slog.Int("retention_days", cfg.Retention.Days),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure media directory exists.
	if err := os.MkdirAll(cfg.Media.Path, 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}

	// Initialize SQLite key-value store.
	kv, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer kv.Close()

	blobs := media.NewStore(cfg.Media.Path, cfg.Media.InlineThreshold)

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Journal repository with change events wired to the broker.
	repo := journal.NewRepository(kv, blobs,
		journal.WithRetention(time.Duration(cfg.Retention.Days)*24*time.Hour),
		journal.WithChangeCallback(func(kind string, id uuid.UUID) {
			broker.PublishEntryEvent(kind, id.String())
		}),
	)
	defer repo.Close()
	repo.Load()

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes (SSE included) under /api.
	r.Mount("/api", api.NewRouter(repo, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the media directory for backing files that vanish out from
	// under live entries.
	g.Go(func() error {
		err := media.Watch(gCtx, cfg.Media.Path, logger, repo.MediaFiles, func(kind, name string) {
			broker.PublishMediaMissing(name)
		})
		if err != nil {
			logger.Warn("media watcher failed", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	// Drain pending writes before the store closes.
	repo.Flush()

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the journal as an MCP stdio server. Stdout carries the
// protocol, so logs go to stderr.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.Media.Path, 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}

	kv, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer kv.Close()

	blobs := media.NewStore(cfg.Media.Path, cfg.Media.InlineThreshold)

	repo := journal.NewRepository(kv, blobs,
		journal.WithRetention(time.Duration(cfg.Retention.Days)*24*time.Hour),
	)
	defer repo.Close()
	repo.Load()

	logger.Info("Starting MCP server on stdio")
	return mcpserver.New(repo).ServeStdio()
}

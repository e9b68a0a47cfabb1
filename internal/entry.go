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
	"golang.org/x/sync/errgroup"

	"github.com/gweinger/zettelkasten/internal/api"
	"github.com/gweinger/zettelkasten/internal/oracle"
	"github.com/gweinger/zettelkasten/internal/review"
	"github.com/gweinger/zettelkasten/internal/sse"
	"github.com/gweinger/zettelkasten/internal/vault"
	"github.com/gweinger/zettelkasten/internal/watch"
)

// NewLogger builds the structured JSON logger used by every surface.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewReviewService builds the vault-backed review service from config.
// The vault directory tree is created if missing. The classifier is the
// Anthropic client when an API key is configured, otherwise the disabled
// stand-in that stages everything as new.
func NewReviewService(cfg *Config, logger *slog.Logger) (*review.Service, *vault.FS, error) {
	if err := vault.EnsureLayout(cfg.Vault.Path); err != nil {
		return nil, nil, fmt.Errorf("create vault layout: %w", err)
	}
	v, err := vault.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init vault: %w", err)
	}

	var classifier oracle.Classifier = oracle.Disabled{}
	if cfg.Oracle.Enabled() {
		c, err := oracle.NewAnthropic(cfg.Oracle.APIKey, cfg.Oracle.Model, cfg.Oracle.BaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("init oracle: %w", err)
		}
		classifier = c
	}

	return review.NewService(v, classifier, logger), v, nil
}

// Run starts the application with the given options.
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
	logger := NewLogger(cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.Bool("oracle_enabled", cfg.Oracle.Enabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, v, err := NewReviewService(cfg, logger)
	if err != nil {
		return err
	}

	// Bring index documents up to date before serving.
	if err := svc.RebuildIndex(ctx); err != nil {
		logger.Warn("initial index rebuild failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Build API router; the SSE endpoint lives inside the auth group.
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, v.Root())

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

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Attachments are served unauthenticated so note bodies can embed them.
	r.Get("/attachments/{filename}", api.NewAttachmentHandler(v.Root()).ServeFile)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE fan-out and debounced index rebuilds.
	g.Go(func() error {
		if err := watch.Watch(gCtx, v.Root(), logger, broker, func() error {
			return svc.RebuildIndex(gCtx)
		}); err != nil {
			logger.Warn("watcher failed", slog.String("error", err.Error()))
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

	logger.Info("Server stopped successfully")
	return nil
}

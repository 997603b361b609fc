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

	"github.com/starford/sowilo/internal/api"
	"github.com/starford/sowilo/internal/contentservice"
	"github.com/starford/sowilo/internal/index"
	"github.com/starford/sowilo/internal/resolver"
	"github.com/starford/sowilo/internal/sse"
	"github.com/starford/sowilo/internal/store"
	"github.com/starford/sowilo/internal/watch"
)

// NewLogger builds the structured JSON logger and installs it as the
// slog default.
func NewLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// BuildService assembles the content store, the optional search index,
// and the service on top of them. The returned cleanup closes the index
// (when one is open) and must be called on shutdown.
func BuildService(cfg *Config, logger *slog.Logger) (*contentservice.Service, func(), error) {
	sources := make([]store.Source, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		if _, err := os.Stat(sc.Path); err != nil {
			return nil, nil, fmt.Errorf("content root for %q: %w", sc.Name, err)
		}
		sources = append(sources, store.Source{
			Name:     sc.Name,
			BasePath: sc.BasePath,
			Resolver: resolver.Config{
				Root:            sc.Path,
				CategoryFromDir: sc.CategoryFromDir,
			},
		})
	}

	st, err := store.New(sources, cfg.Cache.TTL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init store: %w", err)
	}

	var idx *index.DB
	cleanup := func() {}
	if cfg.Index.Enabled {
		idx, err = index.Open(cfg.Index.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("init search index: %w", err)
		}
		cleanup = func() { _ = idx.Close() }
	}

	svc := contentservice.NewService(st, idx)

	// Initial index population. Failures are not fatal: search degrades
	// until the watcher rebuilds.
	if idx != nil {
		for _, src := range sources {
			if err := svc.RebuildIndex(src.Name); err != nil {
				logger.Warn("initial index build failed",
					slog.String("source", src.Name),
					slog.String("error", err.Error()))
			}
		}
	}

	return svc, cleanup, nil
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

	logger := NewLogger(cfg.App.LogLevel)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.Int("sources", len(cfg.Sources)),
		slog.Bool("index_enabled", cfg.Index.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, cleanup, err := BuildService(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	// SSE broker for content change events.
	broker := sse.NewBroker()
	defer broker.Close()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)
	assets := api.NewAssetHandler(svc.Store())

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

	// Static assets embedded in content roots.
	r.Get("/assets/{source}/*", assets.ServeFile)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch content roots for changes.
	g.Go(func() error {
		return watch.Watch(gCtx, svc, broker, logger)
	})

	// Start HTTP server.
	g.Go(func() error {
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

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

	"github.com/starford/curator/internal/api"
	"github.com/starford/curator/internal/cache"
	"github.com/starford/curator/internal/console"
	"github.com/starford/curator/internal/content"
	"github.com/starford/curator/internal/itemservice"
	"github.com/starford/curator/internal/mcpserver"
	"github.com/starford/curator/internal/media"
	"github.com/starford/curator/internal/notify"
	"github.com/starford/curator/internal/reorder"
	"github.com/starford/curator/internal/sse"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("media_path", cfg.Media.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := content.Open(ctx, cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("init content store: %w", err)
	}
	defer store.Close()

	mediaStore, err := media.NewStore(cfg.Media.Path, cfg.Media.MaxUploadBytes())
	if err != nil {
		return fmt.Errorf("init media: %w", err)
	}

	// SSE broker.
	broker := sse.NewBroker(cfg.Events.Throttle)
	defer broker.Close()

	lists := cache.New(func(key string) {
		broker.Publish("cache.invalidated", map[string]string{"key": key})
	})
	svc := itemservice.NewService(store, broker, lists)
	notifier := notify.Multi{notify.Log{Logger: logger}, notify.Broadcast{Pub: broker}}
	syncer := reorder.New(svc, lists, notifier, reorder.WithLogger(logger))
	con := console.New(syncer, svc, broker, console.Config{
		Delay:    cfg.Search.Debounce,
		Timeout:  cfg.Search.Timeout,
		PageSize: cfg.Search.PageSize,
		IdleTTL:  cfg.Search.SessionTTL,
		Logger:   logger,
	})

	apiRouter := api.NewRouter(api.Deps{
		Items:    svc,
		Console:  con,
		Media:    mediaStore,
		Events:   broker,
		Notifier: notifier,
	}, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

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

	// Uploaded files, public like any embedded asset.
	r.Get("/media/{name}", api.NewMediaHandler(mediaStore, nil).ServeFile)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(runCtx)

	// Watch the media directory so uploads from any source reach the console.
	g.Go(func() error {
		return media.Watch(gCtx, mediaStore.Root(), logger, func(kind, name string) {
			broker.Publish("media."+kind, map[string]string{"name": name})
		})
	})

	// Close idle search sessions.
	g.Go(func() error {
		return con.Run(gCtx)
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
		defer signal.Stop(quit)

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

		// Stop the background workers.
		stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr so they do
// not corrupt the protocol stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	store, err := content.Open(ctx, cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("init content store: %w", err)
	}
	defer store.Close()

	mediaStore, err := media.NewStore(cfg.Media.Path, cfg.Media.MaxUploadBytes())
	if err != nil {
		return fmt.Errorf("init media: %w", err)
	}

	logger.Info("MCP server starting", slog.String("database_driver", cfg.Database.Driver))
	return mcpserver.New(itemservice.NewService(store, nil, nil), mediaStore).ServeStdio()
}

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

	"github.com/Voelzke/notehub/internal/api"
	"github.com/Voelzke/notehub/internal/index"
	"github.com/Voelzke/notehub/internal/noteservice"
	"github.com/Voelzke/notehub/internal/reminder"
	"github.com/Voelzke/notehub/internal/share"
	"github.com/Voelzke/notehub/internal/sse"
	"github.com/Voelzke/notehub/internal/storage"
)

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

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_path", cfg.Store.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Store.Path, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	syncer := index.NewSyncer(db, store, logger)
	svc := noteservice.NewService(store, db, syncer, share.NopManager{})

	// Bootstrap indexes for owners that have none yet.
	if owners, err := store.Owners(); err != nil {
		logger.Warn("owner enumeration failed", slog.String("error", err.Error()))
	} else {
		for _, owner := range owners {
			if err := syncer.EnsureSync(owner); err != nil {
				logger.Warn("initial sync failed",
					slog.String("owner", owner),
					slog.String("error", err.Error()))
			}
		}
	}

	broker := sse.NewBroker()
	defer broker.Close()

	events := index.NewEvents(syncer, store, store.Base(), logger)
	events.Callback = broker.PublishNoteEvent

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token,
		broker.Handler(api.OwnerFromRequest))

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

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	notifier := app.notifier
	if notifier == nil {
		notifier = reminder.LogNotifier{Logger: logger}
	}

	syncDriver := index.NewDriver(syncer, store,
		time.Duration(cfg.Sync.IntervalSeconds)*time.Second, logger)
	reminderDriver := reminder.NewDriver(svc, store, notifier,
		time.Duration(cfg.Sync.ReminderIntervalSeconds)*time.Second, logger)

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return index.Watch(gCtx, events, store.Base(), logger)
	})

	g.Go(func() error {
		return syncDriver.Run(gCtx)
	})

	g.Go(func() error {
		return reminderDriver.Run(gCtx)
	})

	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

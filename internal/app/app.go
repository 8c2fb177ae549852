// Package app centralizes dependency wiring for the stackwatch service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stackwatch/internal/chainhook"
	"stackwatch/internal/config"
	"stackwatch/internal/server"
	"stackwatch/internal/storage"
	"stackwatch/internal/store"
)

const (
	shutdownTimeout     = 5 * time.Second
	registrationTimeout = 30 * time.Second
)

// App wires the event store, HTTP surface, and registration client.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	store      *store.Store
	registrar  *chainhook.Client
	httpServer *http.Server
}

// New builds an App with all required dependencies.
func New(cfg config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	st := store.New(cfg.Capacity)

	var archive storage.Archive
	if cfg.ArchivePath != "" {
		archive = storage.NewJsonlArchive(cfg.ArchivePath)
	}

	handler := server.NewHandler(cfg.Contract, st, archive, logger)

	return &App{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		registrar: chainhook.NewClient(cfg.ChainhookURL, cfg.APIKey, logger),
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: server.NewEngine(handler),
		},
	}
}

// Run starts the HTTP server and fires predicate registration, blocking
// until ctx cancellation or a fatal server error. Registration never
// gates webhook readiness: the predicate may already be registered from
// a prior run, so a failure only logs a warning.
func (a *App) Run(ctx context.Context) error {
	go a.register(ctx)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		serverErr := make(chan error, 1)
		go func() {
			a.logger.Info("http server listening",
				zap.String("addr", a.httpServer.Addr),
				zap.String("contract", a.cfg.Contract),
				zap.Int("capacity", a.store.Capacity()),
			)
			serverErr <- a.httpServer.ListenAndServe()
		}()

		select {
		case <-gctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := a.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server shutdown: %w", err)
			}
			if err := <-serverErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return gctx.Err()
		case err := <-serverErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *App) register(ctx context.Context) {
	regCtx, cancel := context.WithTimeout(ctx, registrationTimeout)
	defer cancel()

	pred := chainhook.NewContractCallPredicate(a.cfg.Contract, a.cfg.Network, a.cfg.WebhookURL(), a.cfg.APIKey)
	if err := a.registrar.Register(regCtx, pred); err != nil {
		a.logger.Warn("predicate registration failed, continuing",
			zap.Error(err),
			zap.String("endpoint", a.cfg.ChainhookURL),
		)
	}
}

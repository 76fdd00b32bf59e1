// Package server wires the configured storage backend, services and HTTP API
// together and runs them until the process is signalled.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/cardkeeper/internal/backup"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/lookup"
	"github.com/dmitrijs2005/cardkeeper/internal/repositories/repomanager"
	"github.com/dmitrijs2005/cardkeeper/internal/server/api"
	"github.com/dmitrijs2005/cardkeeper/internal/server/config"
	"github.com/dmitrijs2005/cardkeeper/internal/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	storage *repomanager.Manager
	api     *api.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogBackend, os.Stdout)

	settings, err := c.StorageSettings()
	if err != nil {
		return nil, err
	}

	storage, err := repomanager.Open(ctx, settings, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	lk := lookup.New(c.Lookup(), lookup.WithLogger(logger))

	var idp services.IdentityProvider
	var serviceKey string
	if remote := storage.Remote(); remote != nil {
		idp = remote
		serviceKey = c.SupabaseKey
	}

	srv := api.NewServer(api.Deps{
		Cards:      services.NewCardService(storage.Cards(), lk, logger),
		Repo:       storage.Cards(),
		Users:      storage,
		Auth:       services.NewAuthService(idp, c.JWTSecret, logger),
		Lookup:     lk,
		Backup:     backup.NewS3Store(c.Backup(), logger),
		Backend:    string(storage.Kind()),
		ServiceKey: serviceKey,
		Logger:     logger,
	}, api.Options{
		AllowedOrigins: c.AllowedOrigins,
		RateLimit:      c.RateLimit,
		RequestTimeout: c.RequestTimeout,
	})

	return &App{config: c, logger: logger, storage: storage, api: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	if err := app.api.Run(ctx, app.config.Addr); err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
		cancelFunc()
		return err
	}
	return nil
}

// Run serves until ctx is cancelled or the process receives SIGINT, SIGTERM
// or SIGQUIT, then releases the storage backend.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "backend", string(app.storage.Kind()), "addr", app.config.Addr)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	var runErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr = app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.storage.Close(); err != nil {
		app.logger.Error(ctx, "storage close failed", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
	return runErr
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/cardkeeper/internal/backup"
	"github.com/dmitrijs2005/cardkeeper/internal/client/client"
	"github.com/dmitrijs2005/cardkeeper/internal/client/config"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/lookup"
	"github.com/dmitrijs2005/cardkeeper/internal/repositories/repomanager"
	"github.com/dmitrijs2005/cardkeeper/internal/services"
)

// lookupClient is what the CLI needs from the card lookup.
type lookupClient interface {
	services.Validator
	Search(ctx context.Context, query string, limit int) ([]lookup.CardInfo, error)
	HealthCheck(ctx context.Context) (bool, string)
}

type exporter interface {
	Export(ctx context.Context, src backup.Source, backend string) (string, error)
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	storage *repomanager.Manager
	cards   *services.CardService
	auth    *services.AuthService
	lookup  lookupClient
	backup  exporter
	api     client.Client
	reader  *bufio.Reader
	out     io.Writer
}

// NewApp opens the configured backend and wires the services. The API
// client is created lazily because most commands never need it.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogBackend, os.Stderr)

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
	if remote := storage.Remote(); remote != nil {
		idp = remote
	}

	return &App{
		config:  c,
		logger:  logger,
		storage: storage,
		cards:   services.NewCardService(storage.Cards(), lk, logger),
		auth:    services.NewAuthService(idp, "", logger),
		lookup:  lk,
		backup:  backup.NewS3Store(c.Backup(), logger),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

func (a *App) apiClient() (client.Client, error) {
	if a.api != nil {
		return a.api, nil
	}
	c, err := client.NewHTTPClient(a.config.APIURL, a.config.APITimeout)
	if err != nil {
		return nil, err
	}
	a.api = c
	return c, nil
}

func (a *App) Close() error {
	return a.storage.Close()
}

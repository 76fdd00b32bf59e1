package client

import (
	"context"

	"github.com/dmitrijs2005/cardkeeper/internal/models"
)

// Client is the part of the cardkeeper HTTP API the CLI talks to.
type Client interface {
	SignUp(ctx context.Context, email, password, username string) (*models.AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*models.AuthResult, error)
	Ping(ctx context.Context) error
}

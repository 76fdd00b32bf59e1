// Package cards holds the storage contract for the card collection and its
// implementations: SQLite and PostgreSQL over database/sql, and the hosted
// Supabase project over PostgREST.
package cards

import (
	"context"

	"github.com/dmitrijs2005/cardkeeper/internal/models"
)

// Repository describes the operations every storage backend provides.
// Identifiers are backend-assigned strings; an identifier the backend cannot
// have issued is reported as not found.
type Repository interface {
	// Create always inserts a new row and returns its id.
	Create(ctx context.Context, card *models.Card) (string, error)

	// UpsertByIdentity increments the quantity of the card with the same
	// name, set name, card number and owner, or inserts it when there is none.
	UpsertByIdentity(ctx context.Context, card *models.Card) (string, error)

	// FindByID returns common.ErrNotFound (as *common.NotFoundError) when absent.
	FindByID(ctx context.Context, id string) (*models.Card, error)

	// FindAll returns every visible card, newest first.
	FindAll(ctx context.Context) ([]models.Card, error)

	// FindByName matches a case-insensitive substring of the name, ordered by name.
	FindByName(ctx context.Context, substr string) ([]models.Card, error)

	FindFavorites(ctx context.Context) ([]models.Card, error)

	// FindByOwner returns the cards of one user, newest first.
	FindByOwner(ctx context.Context, userID string) ([]models.Card, error)

	// Update writes the non-nil fields of u. It reports false when id is unknown.
	Update(ctx context.Context, id string, u models.CardUpdate) (bool, error)

	Delete(ctx context.Context, id string) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)

	Stats(ctx context.Context) (*models.Stats, error)
}

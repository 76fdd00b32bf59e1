package supabase

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/models"
)

const usersTable = "users"

// InsertProfile stores the denormalized profile row of a new identity.
func (c *Client) InsertProfile(ctx context.Context, u models.User) error {
	body := map[string]string{"id": u.ID, "username": u.Username, "email": u.Email}
	return c.Do(ctx, Request{Method: http.MethodPost, Path: Rest(usersTable), Body: body, Prefer: "return=minimal"}, nil)
}

// GetProfile returns the profile row of userID.
func (c *Client) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	var rows []models.User
	err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   Rest(usersTable),
		Query:  url.Values{"select": {"*"}, "id": {"eq." + userID}},
	}, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &common.NotFoundError{Resource: "user", ID: userID}
	}
	return &rows[0], nil
}

// ListUsers returns every profile, newest first. Requires the service key.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var rows []models.User
	err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   Rest(usersTable),
		Query:  url.Values{"select": {"*"}, "order": {"created_at.desc"}},
		Bearer: c.apiKey,
	}, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

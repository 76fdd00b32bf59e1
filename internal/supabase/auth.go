package supabase

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/models"
)

// authUser is the GoTrue user object.
type authUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	CreatedAt    time.Time      `json:"created_at"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (u authUser) toModel() models.User {
	m := models.User{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
	if name, ok := u.UserMetadata["username"].(string); ok {
		m.Username = name
	}
	return m
}

// authResponse covers both GoTrue answers: a session with a nested user, or
// a bare user when e-mail confirmation is pending.
type authResponse struct {
	authUser
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	User         *authUser `json:"user"`
}

func (r authResponse) toModel() models.AuthResult {
	res := models.AuthResult{User: r.authUser.toModel()}
	if r.User != nil {
		res.User = r.User.toModel()
	}
	if r.AccessToken != "" {
		res.Session = &models.Session{
			AccessToken:  r.AccessToken,
			RefreshToken: r.RefreshToken,
			TokenType:    r.TokenType,
			ExpiresIn:    r.ExpiresIn,
		}
	}
	return res
}

// SignUp registers an identity; username is stored in the user metadata.
func (c *Client) SignUp(ctx context.Context, email, password, username string) (*models.AuthResult, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"username": username},
	}
	var resp authResponse
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: authPrefix + "/signup", Body: body}, &resp); err != nil {
		return nil, err
	}
	res := resp.toModel()
	return &res, nil
}

// SignIn exchanges e-mail and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   authPrefix + "/token",
		Query:  url.Values{"grant_type": {"password"}},
		Body:   body,
	}, &resp)
	if err != nil {
		return nil, err
	}
	res := resp.toModel()
	return &res, nil
}

// GetUser resolves an access token to its identity.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*models.User, error) {
	var u authUser
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: authPrefix + "/user", Bearer: accessToken}, &u); err != nil {
		return nil, err
	}
	m := u.toModel()
	return &m, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: authPrefix + "/logout", Bearer: accessToken}, nil)
}

// DeleteUser removes an identity. Requires the service key.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   authPrefix + "/admin/users/" + url.PathEscape(userID),
		Bearer: c.apiKey,
	}, nil)
}

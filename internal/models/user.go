package models

import "time"

// User is an identity known to the hosted auth service, joined with its
// profile row.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the token pair issued by the auth service.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// AuthResult is returned by sign-up and sign-in.
type AuthResult struct {
	User    User     `json:"user"`
	Session *Session `json:"session,omitempty"`
}

package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/models"
)

type ctxKey int

const (
	userKey ctxKey = iota
	tokenKey
)

func userFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

func tokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

// bearerToken extracts the credential of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get(common.AuthorizationHeader)
	if len(h) < len(common.BearerPrefix) || !strings.EqualFold(h[:len(common.BearerPrefix)], common.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(h[len(common.BearerPrefix):])
}

// requireUser resolves the bearer token to a user and stores both in the
// request context.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			Error(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		u, err := s.Auth.CurrentUser(r.Context(), token)
		if err != nil {
			if StatusFor(err) == http.StatusUnauthorized {
				Error(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			s.fail(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, u)
		ctx = context.WithValue(ctx, tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireServiceKey admits requests whose bearer equals the service key.
func (s *Server) requireServiceKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if s.ServiceKey == "" || token == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(s.ServiceKey)) != 1 {
			s.logger.Warn(r.Context(), "admin request rejected", "path", r.URL.Path, "remote", r.RemoteAddr)
			Error(w, http.StatusUnauthorized, "Invalid admin API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.Auth.SignUp(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusCreated, res)
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if StatusFor(err) == http.StatusUnauthorized {
			Error(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, res)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, http.StatusOK, userFrom(r.Context()))
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	if err := s.Auth.SignOut(r.Context(), tokenFrom(r.Context())); err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, MessageBody{Message: "Signed out successfully", Success: true})
}

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/cardkeeper/internal/auth"
	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/models"
	"github.com/dmitrijs2005/cardkeeper/internal/supabase"
	"github.com/google/uuid"
)

const (
	MinPasswordLength = 6
	MinUsernameLength = 3
	MaxUsernameLength = 50
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IdentityProvider is the hosted auth service plus its profile table.
// *supabase.Client implements it.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, username string) (*models.AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*models.AuthResult, error)
	GetUser(ctx context.Context, accessToken string) (*models.User, error)
	SignOut(ctx context.Context, accessToken string) error
	DeleteUser(ctx context.Context, userID string) error
	InsertProfile(ctx context.Context, u models.User) error
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// AuthService manages identities. Without a provider (local backends) every
// operation fails with common.ErrUnsupported.
type AuthService struct {
	idp       IdentityProvider
	jwtSecret []byte
	logger    logging.Logger
}

// NewAuthService builds the service. With a non-empty jwtSecret access
// tokens are verified locally; otherwise the provider is asked.
func NewAuthService(idp IdentityProvider, jwtSecret string, logger logging.Logger) *AuthService {
	return &AuthService{idp: idp, jwtSecret: []byte(jwtSecret), logger: logger.With("module", "auth")}
}

func (s *AuthService) Enabled() bool {
	return s.idp != nil
}

func (s *AuthService) provider() (IdentityProvider, error) {
	if s.idp == nil {
		return nil, fmt.Errorf("accounts: %w", common.ErrUnsupported)
	}
	return s.idp, nil
}

// mapAuthErr turns rejected credentials into ErrUnauthorized and other
// client-side rejections into validation errors.
func mapAuthErr(err error, rejected error) error {
	var apiErr *supabase.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if rejected != nil {
			return fmt.Errorf("%w: %s", rejected, apiErr.Message)
		}
		return common.InvalidField("", apiErr.Message)
	}
	return err
}

func validateSignUp(email, password, username string) error {
	if !emailPattern.MatchString(email) {
		return common.InvalidField("email", "Invalid email address")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return common.InvalidField("password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return common.InvalidField("username",
			fmt.Sprintf("Username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength))
	}
	return nil
}

// SignUp registers an identity and stores its profile row.
func (s *AuthService) SignUp(ctx context.Context, email, password, username string) (*models.AuthResult, error) {
	idp, err := s.provider()
	if err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if err := validateSignUp(email, password, username); err != nil {
		return nil, err
	}

	res, err := idp.SignUp(ctx, email, password, username)
	if err != nil {
		s.logger.Warn(ctx, "sign up failed", "email", email, "error", err)
		return nil, mapAuthErr(err, nil)
	}
	if res.User.ID == "" {
		return nil, fmt.Errorf("sign up: %w: no user returned", common.ErrStorage)
	}
	res.User.Username = username

	profile := models.User{ID: res.User.ID, Username: username, Email: email}
	if err := idp.InsertProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("store profile: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", res.User.ID, "username", username)
	return res, nil
}

// SignIn exchanges credentials for a session. Bad credentials are
// common.ErrUnauthorized.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.AuthResult, error) {
	idp, err := s.provider()
	if err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, common.InvalidField("", "Email and password are required")
	}

	res, err := idp.SignIn(ctx, email, password)
	if err != nil {
		s.logger.Warn(ctx, "sign in failed", "email", email, "error", err)
		return nil, mapAuthErr(err, common.ErrUnauthorized)
	}
	if res.Session == nil {
		return nil, fmt.Errorf("%w: no session issued", common.ErrUnauthorized)
	}
	s.withProfile(ctx, &res.User)
	return res, nil
}

// withProfile fills the username from the profile row when the identity
// lacks it. Lookup failures are ignored.
func (s *AuthService) withProfile(ctx context.Context, u *models.User) {
	if u.Username != "" || s.idp == nil {
		return
	}
	p, err := s.idp.GetProfile(ctx, u.ID)
	if err != nil {
		return
	}
	u.Username = p.Username
	if u.CreatedAt.IsZero() {
		u.CreatedAt = p.CreatedAt
	}
}

// CurrentUser resolves an access token to a user.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", common.ErrUnauthorized)
	}

	if len(s.jwtSecret) > 0 {
		claims, err := auth.ParseToken(token, s.jwtSecret)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrUnauthorized, err)
		}
		u := &models.User{ID: claims.Subject, Email: claims.Email, Username: claims.Username()}
		s.withProfile(ctx, u)
		return u, nil
	}

	idp, err := s.provider()
	if err != nil {
		return nil, err
	}
	u, err := idp.GetUser(ctx, token)
	if err != nil {
		return nil, mapAuthErr(err, common.ErrUnauthorized)
	}
	s.withProfile(ctx, u)
	return u, nil
}

func (s *AuthService) SignOut(ctx context.Context, token string) error {
	idp, err := s.provider()
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("%w: missing token", common.ErrUnauthorized)
	}
	return idp.SignOut(ctx, token)
}

// ListUsers returns every profile, newest first.
func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	idp, err := s.provider()
	if err != nil {
		return nil, err
	}
	return idp.ListUsers(ctx)
}

// DeleteUser removes an identity. userID must be a UUID.
func (s *AuthService) DeleteUser(ctx context.Context, userID string) error {
	if err := ValidateUserID(userID); err != nil {
		return err
	}
	idp, err := s.provider()
	if err != nil {
		return err
	}
	if err := idp.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Warn(ctx, "user deleted", "user_id", userID)
	return nil
}

// ValidateUserID checks the UUID shape of identity ids.
func ValidateUserID(userID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return common.InvalidField("user_id", "Invalid user ID format")
	}
	return nil
}

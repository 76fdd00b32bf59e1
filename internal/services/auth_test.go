package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/auth"
	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/models"
	"github.com/dmitrijs2005/cardkeeper/internal/supabase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "6f1c1a2e-8d2b-4c55-9a57-3f0b8d0e2a11"

type fakeIdentity struct {
	signUpOut *models.AuthResult
	signUpErr error
	signInOut *models.AuthResult
	signInErr error
	user      *models.User
	userErr   error
	profile   *models.User
	users     []models.User

	profiles   []models.User
	deleted    []string
	signedOut  []string
	profileErr error
}

func (f *fakeIdentity) SignUp(ctx context.Context, email, password, username string) (*models.AuthResult, error) {
	return f.signUpOut, f.signUpErr
}

func (f *fakeIdentity) SignIn(ctx context.Context, email, password string) (*models.AuthResult, error) {
	return f.signInOut, f.signInErr
}

func (f *fakeIdentity) GetUser(ctx context.Context, token string) (*models.User, error) {
	return f.user, f.userErr
}

func (f *fakeIdentity) SignOut(ctx context.Context, token string) error {
	f.signedOut = append(f.signedOut, token)
	return nil
}

func (f *fakeIdentity) DeleteUser(ctx context.Context, userID string) error {
	f.deleted = append(f.deleted, userID)
	return nil
}

func (f *fakeIdentity) InsertProfile(ctx context.Context, u models.User) error {
	f.profiles = append(f.profiles, u)
	return f.profileErr
}

func (f *fakeIdentity) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	if f.profile == nil {
		return nil, &common.NotFoundError{Resource: "user", ID: userID}
	}
	return f.profile, nil
}

func (f *fakeIdentity) ListUsers(ctx context.Context) ([]models.User, error) {
	return f.users, nil
}

func TestSignUp_Validation(t *testing.T) {
	s := NewAuthService(&fakeIdentity{}, "", logging.NewNopLogger())
	ctx := context.Background()

	tests := []struct {
		email, password, username, field string
	}{
		{"not-an-email", "secret1", "ash", "email"},
		{"ash@example.com", "12345", "ash", "password"},
		{"ash@example.com", "secret1", "as", "username"},
		{"ash@example.com", "secret1", strings.Repeat("a", 51), "username"},
	}
	for _, tt := range tests {
		_, err := s.SignUp(ctx, tt.email, tt.password, tt.username)
		var vErr *common.ValidationError
		require.ErrorAs(t, err, &vErr, tt.field)
		assert.Equal(t, tt.field, vErr.Field)
	}
}

func TestSignUp_StoresProfile(t *testing.T) {
	idp := &fakeIdentity{signUpOut: &models.AuthResult{User: models.User{ID: testUserID, Email: "ash@example.com"}}}
	s := NewAuthService(idp, "", logging.NewNopLogger())

	res, err := s.SignUp(context.Background(), " ash@example.com ", "secret1", " ash ")
	require.NoError(t, err)
	assert.Equal(t, "ash", res.User.Username)
	assert.Equal(t, []models.User{{ID: testUserID, Username: "ash", Email: "ash@example.com"}}, idp.profiles)
}

func TestSignUp_ProviderRejects(t *testing.T) {
	idp := &fakeIdentity{signUpErr: &supabase.APIError{Status: http.StatusUnprocessableEntity, Message: "User already registered"}}
	s := NewAuthService(idp, "", logging.NewNopLogger())

	_, err := s.SignUp(context.Background(), "ash@example.com", "secret1", "ash")
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))
	assert.Equal(t, "User already registered", err.Error())
}

func TestSignIn(t *testing.T) {
	idp := &fakeIdentity{
		signInOut: &models.AuthResult{
			User:    models.User{ID: testUserID, Email: "ash@example.com"},
			Session: &models.Session{AccessToken: "at"},
		},
		profile: &models.User{ID: testUserID, Username: "ash"},
	}
	s := NewAuthService(idp, "", logging.NewNopLogger())

	res, err := s.SignIn(context.Background(), "ash@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ash", res.User.Username, "username comes from the profile row")
	assert.Equal(t, "at", res.Session.AccessToken)
}

func TestSignIn_BadCredentials(t *testing.T) {
	idp := &fakeIdentity{signInErr: &supabase.APIError{Status: http.StatusBadRequest, Message: "Invalid login credentials"}}
	s := NewAuthService(idp, "", logging.NewNopLogger())

	_, err := s.SignIn(context.Background(), "ash@example.com", "wrong")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = s.SignIn(context.Background(), "", "")
	assert.True(t, common.IsValidation(err))
}

func TestCurrentUser_LocalVerification(t *testing.T) {
	secret := "jwt-secret"
	idp := &fakeIdentity{userErr: errors.New("must not be called")}
	s := NewAuthService(idp, secret, logging.NewNopLogger())
	ctx := context.Background()

	tok, err := auth.GenerateToken(testUserID, "ash@example.com", "ash", []byte(secret), time.Hour)
	require.NoError(t, err)

	u, err := s.CurrentUser(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, &models.User{ID: testUserID, Email: "ash@example.com", Username: "ash"}, u)

	expired, err := auth.GenerateToken(testUserID, "", "", []byte(secret), -time.Minute)
	require.NoError(t, err)
	_, err = s.CurrentUser(ctx, expired)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.ErrorIs(t, err, common.ErrTokenExpired)

	_, err = s.CurrentUser(ctx, "")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestCurrentUser_RemoteVerification(t *testing.T) {
	idp := &fakeIdentity{user: &models.User{ID: testUserID, Email: "ash@example.com"}, profile: &models.User{Username: "ash"}}
	s := NewAuthService(idp, "", logging.NewNopLogger())

	u, err := s.CurrentUser(context.Background(), "opaque")
	require.NoError(t, err)
	assert.Equal(t, "ash", u.Username)

	idp.userErr = &supabase.APIError{Status: http.StatusUnauthorized, Message: "invalid JWT"}
	_, err = s.CurrentUser(context.Background(), "opaque")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestDeleteUser(t *testing.T) {
	idp := &fakeIdentity{}
	s := NewAuthService(idp, "", logging.NewNopLogger())

	err := s.DeleteUser(context.Background(), "not-a-uuid")
	assert.True(t, common.IsValidation(err))
	assert.Empty(t, idp.deleted)

	require.NoError(t, s.DeleteUser(context.Background(), testUserID))
	assert.Equal(t, []string{testUserID}, idp.deleted)
}

func TestAuthService_NoProvider(t *testing.T) {
	s := NewAuthService(nil, "", logging.NewNopLogger())
	ctx := context.Background()
	assert.False(t, s.Enabled())

	_, err := s.SignUp(ctx, "ash@example.com", "secret1", "ash")
	assert.ErrorIs(t, err, common.ErrUnsupported)
	_, err = s.SignIn(ctx, "ash@example.com", "secret1")
	assert.ErrorIs(t, err, common.ErrUnsupported)
	_, err = s.CurrentUser(ctx, "token")
	assert.ErrorIs(t, err, common.ErrUnsupported)
	_, err = s.ListUsers(ctx)
	assert.ErrorIs(t, err, common.ErrUnsupported)
	assert.ErrorIs(t, s.SignOut(ctx, "token"), common.ErrUnsupported)
	assert.ErrorIs(t, s.DeleteUser(ctx, testUserID), common.ErrUnsupported)
}

func TestSignOutAndListUsers(t *testing.T) {
	idp := &fakeIdentity{users: []models.User{{ID: "a"}, {ID: "b"}}}
	s := NewAuthService(idp, "", logging.NewNopLogger())
	ctx := context.Background()

	require.NoError(t, s.SignOut(ctx, "at"))
	assert.Equal(t, []string{"at"}, idp.signedOut)
	assert.ErrorIs(t, s.SignOut(ctx, ""), common.ErrUnauthorized)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

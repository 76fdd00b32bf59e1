package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/cardkeeper/internal/backup"
	"github.com/dmitrijs2005/cardkeeper/internal/client/config"
	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/lookup"
	"github.com/dmitrijs2005/cardkeeper/internal/models"
	"github.com/dmitrijs2005/cardkeeper/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	verdict lookup.Result
	found   []lookup.CardInfo
	err     error
	healthy bool
}

func (f *fakeLookup) Validate(context.Context, string) lookup.Result { return f.verdict }
func (f *fakeLookup) Search(_ context.Context, _ string, _ int) ([]lookup.CardInfo, error) {
	return f.found, f.err
}
func (f *fakeLookup) HealthCheck(context.Context) (bool, string) {
	if f.healthy {
		return true, "API is healthy"
	}
	return false, "API validation is disabled"
}

type fakeBackup struct {
	backend string
	cards   int
	err     error
}

func (f *fakeBackup) Export(ctx context.Context, src backup.Source, backend string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	all, err := src.FindAll(ctx)
	if err != nil {
		return "", err
	}
	f.backend, f.cards = backend, len(all)
	return "backups/2026/10/15/abc.json", nil
}

type fakeAPI struct {
	email, password, username string
}

func (f *fakeAPI) SignUp(_ context.Context, email, password, username string) (*models.AuthResult, error) {
	f.email, f.password, f.username = email, password, username
	return &models.AuthResult{User: models.User{ID: "u-1", Email: email, Username: username}}, nil
}

func (f *fakeAPI) SignIn(_ context.Context, email, password string) (*models.AuthResult, error) {
	f.email, f.password = email, password
	if password != "secret1" {
		return nil, common.ErrUnauthorized
	}
	return &models.AuthResult{
		User:    models.User{ID: "u-1", Email: email},
		Session: &models.Session{AccessToken: "tok-123"},
	}, nil
}

func (f *fakeAPI) Ping(context.Context) error { return nil }

type testApp struct {
	*App
	out    *bytes.Buffer
	lookup *fakeLookup
	backup *fakeBackup
	api    *fakeAPI
}

func newTestApp(t *testing.T, input string) *testApp {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.Backend = "sqlite"
	c.SQLitePath = ":memory:"
	c.LookupEnabled = false
	c.S3Bucket = "card-backups"

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	ta := &testApp{
		App:    app,
		out:    &bytes.Buffer{},
		lookup: &fakeLookup{verdict: lookup.Result{Verdict: lookup.Valid}},
		backup: &fakeBackup{},
		api:    &fakeAPI{},
	}
	app.out = ta.out
	app.reader = bufio.NewReader(strings.NewReader(input))
	app.lookup = ta.lookup
	app.backup = ta.backup
	app.api = ta.api
	app.cards = services.NewCardService(app.storage.Cards(), ta.lookup, logging.NewNopLogger())
	return ta
}

func (ta *testApp) run(t *testing.T, line string) error {
	t.Helper()
	args, err := splitArgs(line)
	require.NoError(t, err)
	ta.out.Reset()
	return ta.Execute(context.Background(), args)
}

func TestNewApp_SQLite(t *testing.T) {
	ta := newTestApp(t, "")
	assert.Equal(t, "sqlite", string(ta.storage.Kind()))
	assert.False(t, ta.auth.Enabled())
}

func TestNewApp_BadBackend(t *testing.T) {
	c := &config.Config{}
	c.LoadDefaults()
	c.Backend = "mongo"
	_, err := NewApp(context.Background(), c)
	require.ErrorIs(t, err, common.ErrConfig)
}

func TestExecute_AddListSearch(t *testing.T) {
	ta := newTestApp(t, "")

	require.NoError(t, ta.run(t, `add Pikachu --set "Base Set" --number 58/102 --rarity Common --quantity 3`))
	assert.Equal(t, "Card added with ID: 1\n", ta.out.String())

	require.NoError(t, ta.run(t, `add Dark --favorite Charizard --set "Team Rocket"`))
	assert.Equal(t, "Card added with ID: 2\n", ta.out.String())

	require.NoError(t, ta.run(t, "list"))
	assert.Contains(t, ta.out.String(), "Pikachu")
	assert.Contains(t, ta.out.String(), "58/102")
	assert.Contains(t, ta.out.String(), "Dark Charizard")
	assert.Contains(t, ta.out.String(), "2 card(s)")

	require.NoError(t, ta.run(t, "list -f"))
	assert.NotContains(t, ta.out.String(), "Pikachu")
	assert.Contains(t, ta.out.String(), "Dark Charizard")

	require.NoError(t, ta.run(t, "search pika"))
	assert.Contains(t, ta.out.String(), "Pikachu")
	assert.Contains(t, ta.out.String(), "1 card(s)")

	require.NoError(t, ta.run(t, "search nothing-like-this"))
	assert.Equal(t, "No cards found.\n", ta.out.String())
}

func TestExecute_AddMerge(t *testing.T) {
	ta := newTestApp(t, "")

	require.NoError(t, ta.run(t, "add Mew --set Promo --quantity 2"))
	require.NoError(t, ta.run(t, "add Mew --set Promo --quantity 3 --merge"))
	assert.Equal(t, "Card added with ID: 1\n", ta.out.String())

	card, err := ta.cards.GetCard(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 5, card.Quantity)
}

func TestExecute_AddRejected(t *testing.T) {
	ta := newTestApp(t, "")

	err := ta.run(t, "add --quantity abc Mew")
	assert.True(t, common.IsValidation(err))

	err = ta.run(t, "add --set Base")
	var usage usageError
	assert.ErrorAs(t, err, &usage)

	ta.lookup.verdict = lookup.Result{Verdict: lookup.Invalid, Reason: "'Foo' is not a valid Pokemon card"}
	err = ta.run(t, "add Foo --validate")
	require.True(t, common.IsValidation(err))
	assert.Contains(t, err.Error(), "not a valid Pokemon card")

	list, err := ta.cards.ListCards(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestExecute_UpdateDeleteFavorite(t *testing.T) {
	ta := newTestApp(t, "")
	ctx := context.Background()
	require.NoError(t, ta.run(t, "add Pikachu --set Base --favorite"))

	require.NoError(t, ta.run(t, "update 1 --quantity 5 --favorite false --rarity Rare"))
	assert.Equal(t, "Card 1 updated\n", ta.out.String())
	card, err := ta.cards.GetCard(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 5, card.Quantity)
	assert.False(t, card.IsFavorite)
	require.NotNil(t, card.Rarity)
	assert.Equal(t, "Rare", *card.Rarity)
	assert.Equal(t, "Base", card.SetName)

	assert.True(t, common.IsValidation(ta.run(t, "update 1")))
	assert.True(t, common.IsValidation(ta.run(t, "update 1 --favorite maybe")))
	assert.True(t, common.IsNotFound(ta.run(t, "update 99 --quantity 2")))

	require.NoError(t, ta.run(t, "favorite 1"))
	assert.Equal(t, "Card 'Pikachu' added to favorites\n", ta.out.String())
	require.NoError(t, ta.run(t, "favorite 1"))
	assert.Equal(t, "Card 'Pikachu' removed from favorites\n", ta.out.String())

	require.NoError(t, ta.run(t, "delete 1"))
	assert.Equal(t, "Card 'Pikachu' deleted successfully\n", ta.out.String())
	assert.True(t, common.IsNotFound(ta.run(t, "delete 1")))
}

func TestExecute_Stats(t *testing.T) {
	ta := newTestApp(t, "")
	require.NoError(t, ta.run(t, "add Pikachu --set Base --quantity 2 --favorite"))
	require.NoError(t, ta.run(t, "add Mew --set Base"))

	require.NoError(t, ta.run(t, "stats"))
	out := ta.out.String()
	assert.Regexp(t, `Total cards:\s+2`, out)
	assert.Regexp(t, `Total quantity:\s+3`, out)
	assert.Regexp(t, `Favorites:\s+1`, out)
	assert.Regexp(t, `Most common set:\s+Base`, out)

	require.NoError(t, ta.run(t, "stats all"))
	assert.Contains(t, ta.out.String(), "Active users: 0")

	var usage usageError
	assert.ErrorAs(t, ta.run(t, "stats everything"), &usage)
}

func TestExecute_CardsAndUsers(t *testing.T) {
	ta := newTestApp(t, "")
	require.NoError(t, ta.run(t, "add Pikachu"))

	require.NoError(t, ta.run(t, "cards all"))
	assert.Contains(t, ta.out.String(), "Pikachu")

	assert.True(t, common.IsValidation(ta.run(t, "cards user not-a-uuid")))

	require.NoError(t, ta.run(t, "cards user 7f1d1c0e-3c2b-4a8e-9c55-0d5b8e0b6f11"))
	assert.Equal(t, "No cards found.\n", ta.out.String())

	assert.ErrorIs(t, ta.run(t, "users"), common.ErrUnsupported)
}

func TestExecute_LookupAndHealth(t *testing.T) {
	ta := newTestApp(t, "")
	info := lookup.CardInfo{ID: "base1-4", Name: "Charizard", Number: "4", Rarity: "Rare Holo"}
	info.Set.Name = "Base"
	info.Set.Series = "Base"
	ta.lookup.found = []lookup.CardInfo{info}

	require.NoError(t, ta.run(t, "lookup Charizard"))
	assert.Contains(t, ta.out.String(), "base1-4")
	assert.Contains(t, ta.out.String(), "Rare Holo")

	ta.lookup.err = lookup.ErrDisabled
	assert.ErrorIs(t, ta.run(t, "lookup Charizard"), lookup.ErrDisabled)

	require.NoError(t, ta.run(t, "api-health"))
	assert.Equal(t, "Pokemon TCG API: unhealthy (API validation is disabled)\n", ta.out.String())

	ta.lookup.healthy = true
	require.NoError(t, ta.run(t, "api-health"))
	assert.Equal(t, "Pokemon TCG API: healthy (API is healthy)\n", ta.out.String())
}

func TestExecute_Clear(t *testing.T) {
	ta := newTestApp(t, "no\nyes\n")
	require.NoError(t, ta.run(t, "add Pikachu"))
	require.NoError(t, ta.run(t, "add Mew"))

	require.NoError(t, ta.run(t, "clear"))
	assert.Contains(t, ta.out.String(), "Cancelled.")

	require.NoError(t, ta.run(t, "clear"))
	assert.Contains(t, ta.out.String(), "Deleted 2 cards")

	list, err := ta.cards.ListCards(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestExecute_Backup(t *testing.T) {
	ta := newTestApp(t, "")
	require.NoError(t, ta.run(t, "add Pikachu"))

	require.NoError(t, ta.run(t, "backup"))
	assert.Equal(t, "Backup written to s3://card-backups/backups/2026/10/15/abc.json\n", ta.out.String())
	assert.Equal(t, "sqlite", ta.backup.backend)
	assert.Equal(t, 1, ta.backup.cards)

	ta.backup.err = &common.ConfigError{Key: "S3_BUCKET", Message: "not configured"}
	assert.ErrorIs(t, ta.run(t, "backup"), common.ErrConfig)
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(w io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = orig })
}

func TestExecute_SignUpSignIn(t *testing.T) {
	ta := newTestApp(t, "ash@example.com\nash\nash@example.com\nash@example.com\n")

	stubPassword(t, "secret1")
	require.NoError(t, ta.run(t, "signup"))
	assert.Contains(t, ta.out.String(), "User registered: ash (u-1)")
	assert.Contains(t, ta.out.String(), "Confirm your email address")
	assert.Equal(t, "ash@example.com", ta.api.email)
	assert.Equal(t, "ash", ta.api.username)
	assert.Equal(t, "secret1", ta.api.password)

	require.NoError(t, ta.run(t, "signin"))
	assert.Contains(t, ta.out.String(), "Signed in as ash@example.com")
	assert.Contains(t, ta.out.String(), "Access token: tok-123")

	stubPassword(t, "wrong")
	assert.ErrorIs(t, ta.run(t, "signin"), common.ErrUnauthorized)
}

func TestExecute_PasswordError(t *testing.T) {
	ta := newTestApp(t, "ash@example.com\n")
	orig := getPassword
	getPassword = func(io.Writer) ([]byte, error) { return nil, errors.New("no tty") }
	t.Cleanup(func() { getPassword = orig })

	assert.EqualError(t, ta.run(t, "signin"), "no tty")
}

func TestExecute_HelpAndUnknown(t *testing.T) {
	ta := newTestApp(t, "")

	require.NoError(t, ta.Execute(context.Background(), nil))
	assert.Contains(t, ta.out.String(), "Commands:")

	require.NoError(t, ta.run(t, "help"))
	assert.Contains(t, ta.out.String(), "api-health")

	assert.EqualError(t, ta.run(t, "fly"), `unknown command "fly" (try 'help')`)
}

func TestShell(t *testing.T) {
	captureOutput(t)
	ta := newTestApp(t, "add \"Mr. Mime\" --set Jungle\nlist\nexit\n")

	require.NoError(t, ta.run(t, "shell"))
	assert.Contains(t, ta.out.String(), "Card added with ID: 1")
	assert.Contains(t, ta.out.String(), "Mr. Mime")
	assert.Contains(t, ta.out.String(), "Jungle")
}

package services

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/lookup"
	"github.com/dmitrijs2005/cardkeeper/internal/migrations"
	"github.com/dmitrijs2005/cardkeeper/internal/models"
	"github.com/dmitrijs2005/cardkeeper/internal/repositories/cards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var fixedNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

type fakeValidator struct {
	result lookup.Result
	calls  []string
}

func (f *fakeValidator) Validate(ctx context.Context, name string) lookup.Result {
	f.calls = append(f.calls, name)
	return f.result
}

func newCardService(t *testing.T, v Validator) *CardService {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Up(context.Background(), db, migrations.SQLite))

	return NewCardService(cards.NewSQLiteRepository(db), v, logging.NewNopLogger(), WithClock(func() time.Time { return fixedNow }))
}

func ptr[T any](v T) *T { return &v }

func TestAddCard_ThenGet(t *testing.T) {
	s := newCardService(t, nil)
	ctx := context.Background()

	id, err := s.AddCard(ctx, models.CardInput{
		Name:       "  Charizard ",
		SetName:    "Base Set",
		CardNumber: ptr(" 4 "),
		Rarity:     ptr(""),
		Quantity:   1,
	}, AddOptions{})
	require.NoError(t, err)

	got, err := s.GetCard(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Charizard", got.Name)
	assert.Equal(t, "Base Set", got.SetName)
	assert.Equal(t, ptr("4"), got.CardNumber)
	assert.Nil(t, got.Rarity)
	assert.Equal(t, fixedNow, got.DateAdded)
	assert.Nil(t, got.UserID)

	found, err := s.SearchCards(ctx, "char")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, id, found[0].ID)
}

func TestAddCard_ValidationBeforeStorage(t *testing.T) {
	repo := &failingRepo{err: fmt.Errorf("must not be called")}
	s := NewCardService(repo, nil, logging.NewNopLogger())

	_, err := s.AddCard(context.Background(), models.CardInput{Name: " ", Quantity: 1}, AddOptions{})
	assert.True(t, common.IsValidation(err))

	_, err = s.AddCard(context.Background(), models.CardInput{Name: "Mew", Quantity: 1000}, AddOptions{})
	assert.True(t, common.IsValidation(err))
	assert.Equal(t, 0, repo.calls)
}

func TestAddCard_OwnerAndDefaults(t *testing.T) {
	s := newCardService(t, nil)
	ctx := context.Background()

	id, err := s.AddCard(ctx, models.CardInput{Name: "Eevee", Quantity: 2}, AddOptions{Owner: ptr("u-1")})
	require.NoError(t, err)

	got, err := s.GetCard(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", got.SetName)
	assert.Equal(t, ptr("u-1"), got.UserID)

	mine, err := s.ListByOwner(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestAddCard_Merge(t *testing.T) {
	s := newCardService(t, nil)
	ctx := context.Background()
	in := models.CardInput{Name: "Pikachu", SetName: "Base", Quantity: 2}

	id1, err := s.AddCard(ctx, in, AddOptions{Merge: true})
	require.NoError(t, err)
	id2, err := s.AddCard(ctx, in, AddOptions{Merge: true})
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	id3, err := s.AddCard(ctx, in, AddOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)

	got, err := s.GetCard(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)
}

func TestAddCard_Lookup(t *testing.T) {
	tests := []struct {
		name    string
		result  lookup.Result
		wantErr bool
	}{
		{"valid", lookup.Result{Verdict: lookup.Valid}, false},
		{"unknown fails open", lookup.Result{Verdict: lookup.Unknown, Reason: "timeout"}, false},
		{"invalid blocks", lookup.Result{Verdict: lookup.Invalid, Reason: "'Agumon' is not a valid Pokemon card"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &fakeValidator{result: tt.result}
			s := newCardService(t, v)

			_, err := s.AddCard(context.Background(), models.CardInput{Name: " Agumon ", Quantity: 1}, AddOptions{Validate: true})
			assert.Equal(t, []string{"Agumon"}, v.calls)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, common.IsValidation(err))
				assert.Equal(t, tt.result.Reason, err.Error())
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAddCard_LookupOnlyWhenAsked(t *testing.T) {
	v := &fakeValidator{result: lookup.Result{Verdict: lookup.Invalid}}
	s := newCardService(t, v)

	_, err := s.AddCard(context.Background(), models.CardInput{Name: "Agumon", Quantity: 1}, AddOptions{})
	require.NoError(t, err)
	assert.Empty(t, v.calls)
}

func TestUpdateCard(t *testing.T) {
	s := newCardService(t, nil)
	ctx := context.Background()

	id, err := s.AddCard(ctx, models.CardInput{Name: "Bulbasaur", SetName: "Base", Rarity: ptr("Common"), Quantity: 1}, AddOptions{})
	require.NoError(t, err)

	ok, err := s.UpdateCard(ctx, id, models.CardUpdate{Quantity: ptr(5)})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetCard(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)
	assert.Equal(t, "Bulbasaur", got.Name)
	assert.Equal(t, "Base", got.SetName)
	assert.Equal(t, ptr("Common"), got.Rarity)
	assert.Equal(t, fixedNow, got.DateAdded)

	// trimmed on the way in, cleared by whitespace
	ok, err = s.UpdateCard(ctx, id, models.CardUpdate{Name: ptr(" Ivysaur "), Rarity: ptr("  "), SetName: ptr("")})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = s.GetCard(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ivysaur", got.Name)
	assert.Equal(t, "Unknown", got.SetName)
	assert.Nil(t, got.Rarity)
}

func TestUpdateCard_Errors(t *testing.T) {
	s := newCardService(t, nil)
	ctx := context.Background()

	_, err := s.UpdateCard(ctx, "1", models.CardUpdate{})
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))
	assert.Equal(t, "No fields to update", err.Error())

	ok, err := s.UpdateCard(ctx, "404", models.CardUpdate{Quantity: ptr(2)})
	require.NoError(t, err)
	assert.False(t, ok)

	id, err := s.AddCard(ctx, models.CardInput{Name: "Onix", Quantity: 1}, AddOptions{})
	require.NoError(t, err)

	_, err = s.UpdateCard(ctx, id, models.CardUpdate{Quantity: ptr(0)})
	assert.True(t, common.IsValidation(err))

	got, err := s.GetCard(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)
}

func TestDeleteCard(t *testing.T) {
	s := newCardService(t, nil)
	ctx := context.Background()

	id, err := s.AddCard(ctx, models.CardInput{Name: "Gengar", Quantity: 1}, AddOptions{})
	require.NoError(t, err)

	deleted, err := s.DeleteCard(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Gengar", deleted.Name)

	_, err = s.GetCard(ctx, id)
	assert.True(t, common.IsNotFound(err))

	_, err = s.DeleteCard(ctx, id)
	assert.True(t, common.IsNotFound(err))
}

func TestDeleteAllCards(t *testing.T) {
	s := newCardService(t, nil)
	ctx := context.Background()

	for _, n := range []string{"A", "B", "C"} {
		_, err := s.AddCard(ctx, models.CardInput{Name: n, Quantity: 1}, AddOptions{})
		require.NoError(t, err)
	}

	n, err := s.DeleteAllCards(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	all, err := s.ListCards(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestToggleFavorite(t *testing.T) {
	s := newCardService(t, nil)
	ctx := context.Background()

	id, err := s.AddCard(ctx, models.CardInput{Name: "Snorlax", Quantity: 1}, AddOptions{})
	require.NoError(t, err)

	c, err := s.ToggleFavorite(ctx, id)
	require.NoError(t, err)
	assert.True(t, c.IsFavorite)

	favs, err := s.ListFavorites(ctx)
	require.NoError(t, err)
	assert.Len(t, favs, 1)

	c, err = s.ToggleFavorite(ctx, id)
	require.NoError(t, err)
	assert.False(t, c.IsFavorite)

	_, err = s.ToggleFavorite(ctx, "999")
	assert.True(t, common.IsNotFound(err))
}

func TestStats(t *testing.T) {
	s := newCardService(t, nil)
	ctx := context.Background()

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.Stats{MostCommonSet: "None"}, st)

	for _, in := range []models.CardInput{
		{Name: "A", SetName: "Jungle", Quantity: 2},
		{Name: "B", SetName: "Base", Quantity: 3, IsFavorite: true},
		{Name: "C", SetName: "Jungle", Quantity: 1},
	} {
		_, err := s.AddCard(ctx, in, AddOptions{})
		require.NoError(t, err)
	}

	st, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalCards)
	assert.Equal(t, 6, st.TotalQuantity)
	assert.Equal(t, 1, st.Favorites)
	assert.Equal(t, "Jungle", st.MostCommonSet)
}

func TestSystemStats(t *testing.T) {
	s := newCardService(t, nil)
	ctx := context.Background()

	add := func(name string, qty int, owner *string, fav bool) {
		_, err := s.AddCard(ctx, models.CardInput{Name: name, Quantity: qty, IsFavorite: fav}, AddOptions{Owner: owner})
		require.NoError(t, err)
	}
	add("A", 1, nil, false)
	add("B", 2, ptr("u-1"), true)
	add("C", 3, ptr("u-2"), false)
	add("D", 4, ptr("u-1"), false)

	st, err := s.SystemStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, st.TotalCards)
	assert.Equal(t, 10, st.TotalQuantity)
	assert.Equal(t, 2, st.ActiveUsers)
	assert.ElementsMatch(t, []models.OwnerStats{
		{UserID: "u-1", Cards: 2, Quantity: 6, Favorites: 1},
		{UserID: "u-2", Cards: 1, Quantity: 3},
	}, st.PerUser)
}

func TestSearchCards_EmptyTerm(t *testing.T) {
	s := newCardService(t, nil)
	_, err := s.SearchCards(context.Background(), "   ")
	assert.True(t, common.IsValidation(err))
}

// failingRepo answers every call with err.
type failingRepo struct {
	err   error
	calls int
}

func (f *failingRepo) fail() error {
	f.calls++
	return f.err
}

func (f *failingRepo) Create(context.Context, *models.Card) (string, error) { return "", f.fail() }
func (f *failingRepo) UpsertByIdentity(context.Context, *models.Card) (string, error) {
	return "", f.fail()
}
func (f *failingRepo) FindByID(context.Context, string) (*models.Card, error) { return nil, f.fail() }
func (f *failingRepo) FindAll(context.Context) ([]models.Card, error) { return nil, f.fail() }
func (f *failingRepo) FindByName(context.Context, string) ([]models.Card, error) {
	return nil, f.fail()
}
func (f *failingRepo) FindFavorites(context.Context) ([]models.Card, error) { return nil, f.fail() }
func (f *failingRepo) FindByOwner(context.Context, string) ([]models.Card, error) {
	return nil, f.fail()
}
func (f *failingRepo) Update(context.Context, string, models.CardUpdate) (bool, error) {
	return false, f.fail()
}
func (f *failingRepo) Delete(context.Context, string) (bool, error) { return false, f.fail() }
func (f *failingRepo) DeleteAll(context.Context) (int64, error) { return 0, f.fail() }
func (f *failingRepo) Stats(context.Context) (*models.Stats, error) { return nil, f.fail() }

func TestStorageUnavailablePropagates(t *testing.T) {
	repo := &failingRepo{err: fmt.Errorf("GET cards: %w", common.ErrStorageUnavailable)}
	s := NewCardService(repo, nil, logging.NewNopLogger())
	ctx := context.Background()

	_, err := s.ListCards(ctx)
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)

	_, err = s.UpdateCard(ctx, "1", models.CardUpdate{Quantity: ptr(1)})
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)

	_, err = s.AddCard(ctx, models.CardInput{Name: "Mew", Quantity: 1}, AddOptions{})
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)

	_, err = s.SystemStats(ctx)
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
}

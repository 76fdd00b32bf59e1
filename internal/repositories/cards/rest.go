package cards

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/models"
	"github.com/dmitrijs2005/cardkeeper/internal/supabase"
)

const (
	cardsTable     = "cards"
	upsertFunction = "rpc/add_or_increment_card"

	returnRepresentation = "return=representation"

	// invalidText is the SQLSTATE PostgREST reports for an id that does not
	// parse as the key type.
	invalidText = "22P02"
)

// RESTRepository implements Repository against the hosted project's PostgREST
// endpoint. Built over a user-mode client, every call is confined to that
// user's rows by the service's row-level policies.
type RESTRepository struct {
	client *supabase.Client
}

func NewRESTRepository(c *supabase.Client) *RESTRepository {
	return &RESTRepository{client: c}
}

// rowID accepts both numeric and textual primary keys.
type rowID string

func (id *rowID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = rowID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("card id: %w", err)
	}
	*id = rowID(n.String())
	return nil
}

// rowTime accepts every timestamp form the service may return.
type rowTime time.Time

func (t *rowTime) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*t = rowTime{}
		return nil
	}
	parsed, err := models.ParseTimestamp(*s)
	if err != nil {
		return err
	}
	*t = rowTime(parsed.UTC())
	return nil
}

type cardRow struct {
	ID         rowID   `json:"id"`
	Name       string  `json:"name"`
	SetName    *string `json:"set_name"`
	CardNumber *string `json:"card_number"`
	Rarity     *string `json:"rarity"`
	Quantity   int     `json:"quantity"`
	IsFavorite bool    `json:"is_favorite"`
	DateAdded  rowTime `json:"date_added"`
	UserID     *string `json:"user_id"`
}

func (r cardRow) toModel() models.Card {
	c := models.Card{
		ID:         string(r.ID),
		Name:       r.Name,
		SetName:    common.DefaultSetName,
		CardNumber: r.CardNumber,
		Rarity:     r.Rarity,
		Quantity:   r.Quantity,
		IsFavorite: r.IsFavorite,
		DateAdded:  time.Time(r.DateAdded),
		UserID:     r.UserID,
	}
	if r.SetName != nil && *r.SetName != "" {
		c.SetName = *r.SetName
	}
	return c
}

func toModels(rows []cardRow) []models.Card {
	out := make([]models.Card, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out
}

// mapRESTErr converts the quantity guard of add_or_increment_card into a
// validation error and leaves every other failure classified by the client.
func mapRESTErr(op string, err error) error {
	var apiErr *supabase.APIError
	if errors.As(err, &apiErr) && apiErr.Code == raiseException {
		return common.InvalidField("quantity", apiErr.Message)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isInvalidID(err error) bool {
	var apiErr *supabase.APIError
	return errors.As(err, &apiErr) && apiErr.Code == invalidText
}

func (r *RESTRepository) list(ctx context.Context, op string, q url.Values) ([]models.Card, error) {
	q.Set("select", "*")
	var rows []cardRow
	if err := r.client.Do(ctx, supabase.Request{Method: http.MethodGet, Path: supabase.Rest(cardsTable), Query: q}, &rows); err != nil {
		return nil, mapRESTErr(op, err)
	}
	return toModels(rows), nil
}

func (r *RESTRepository) Create(ctx context.Context, card *models.Card) (string, error) {
	body := map[string]any{
		"name":        card.Name,
		"set_name":    card.SetName,
		"card_number": nullable(card.CardNumber),
		"rarity":      nullable(card.Rarity),
		"quantity":    card.Quantity,
		"is_favorite": card.IsFavorite,
		"date_added":  card.DateAdded.UTC().Format(time.RFC3339Nano),
	}
	if card.UserID != nil {
		body["user_id"] = *card.UserID
	}

	var rows []cardRow
	err := r.client.Do(ctx, supabase.Request{
		Method: http.MethodPost,
		Path:   supabase.Rest(cardsTable),
		Body:   body,
		Prefer: returnRepresentation,
	}, &rows)
	if err != nil {
		return "", mapRESTErr("insert card", err)
	}
	if len(rows) == 0 || rows[0].ID == "" {
		return "", fmt.Errorf("insert card: %w: no row returned", common.ErrStorage)
	}
	return string(rows[0].ID), nil
}

func (r *RESTRepository) UpsertByIdentity(ctx context.Context, card *models.Card) (string, error) {
	body := map[string]any{
		"p_name":        card.Name,
		"p_set_name":    card.SetName,
		"p_card_number": nullable(card.CardNumber),
		"p_rarity":      nullable(card.Rarity),
		"p_quantity":    card.Quantity,
		"p_is_favorite": card.IsFavorite,
		"p_user_id":     nullable(card.UserID),
	}
	var id rowID
	err := r.client.Do(ctx, supabase.Request{Method: http.MethodPost, Path: supabase.Rest(upsertFunction), Body: body}, &id)
	if err != nil {
		return "", mapRESTErr("add or increment card", err)
	}
	if id == "" {
		return "", fmt.Errorf("add or increment card: %w: no id returned", common.ErrStorage)
	}
	return string(id), nil
}

func (r *RESTRepository) FindByID(ctx context.Context, id string) (*models.Card, error) {
	if strings.TrimSpace(id) == "" {
		return nil, common.CardNotFound(id)
	}
	cards, err := r.list(ctx, "select card", url.Values{"id": {"eq." + id}})
	if isInvalidID(err) {
		return nil, common.CardNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, common.CardNotFound(id)
	}
	return &cards[0], nil
}

func (r *RESTRepository) FindAll(ctx context.Context) ([]models.Card, error) {
	return r.list(ctx, "select cards", url.Values{"order": {"date_added.desc,id.desc"}})
}

func (r *RESTRepository) FindByName(ctx context.Context, substr string) ([]models.Card, error) {
	return r.list(ctx, "search cards", url.Values{
		"name":  {"ilike.*" + substr + "*"},
		"order": {"name.asc,id.asc"},
	})
}

func (r *RESTRepository) FindFavorites(ctx context.Context) ([]models.Card, error) {
	return r.list(ctx, "select favorites", url.Values{
		"is_favorite": {"eq.true"},
		"order":       {"name.asc,id.asc"},
	})
}

func (r *RESTRepository) FindByOwner(ctx context.Context, userID string) ([]models.Card, error) {
	return r.list(ctx, "select owner cards", url.Values{
		"user_id": {"eq." + userID},
		"order":   {"date_added.desc,id.desc"},
	})
}

// mutate runs a PATCH or DELETE with a representation answer and returns the
// number of rows the service touched.
func (r *RESTRepository) mutate(ctx context.Context, op, method string, q url.Values, body any) (int, error) {
	var rows []cardRow
	err := r.client.Do(ctx, supabase.Request{
		Method: method,
		Path:   supabase.Rest(cardsTable),
		Query:  q,
		Body:   body,
		Prefer: returnRepresentation,
	}, &rows)
	if err != nil {
		return 0, mapRESTErr(op, err)
	}
	return len(rows), nil
}

func (r *RESTRepository) Update(ctx context.Context, id string, u models.CardUpdate) (bool, error) {
	set := assignments(u, sameBool)
	if len(set) == 0 {
		return false, common.InvalidField("", "No fields to update")
	}
	body := make(map[string]any, len(set))
	for _, a := range set {
		body[a.column] = a.value
	}
	n, err := r.mutate(ctx, "update card", http.MethodPatch, url.Values{"id": {"eq." + id}}, body)
	if isInvalidID(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RESTRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, err := r.mutate(ctx, "delete card", http.MethodDelete, url.Values{"id": {"eq." + id}}, nil)
	if isInvalidID(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteAll needs a filter; PostgREST refuses an unfiltered DELETE.
func (r *RESTRepository) DeleteAll(ctx context.Context) (int64, error) {
	n, err := r.mutate(ctx, "delete cards", http.MethodDelete, url.Values{"id": {"not.is.null"}}, nil)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

func (r *RESTRepository) Stats(ctx context.Context) (*models.Stats, error) {
	cards, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	st := ComputeStats(cards)
	return &st, nil
}

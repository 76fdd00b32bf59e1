// Package services holds the business operations on top of storage: the
// card collection and the user identities of the hosted backend.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/lookup"
	"github.com/dmitrijs2005/cardkeeper/internal/models"
	"github.com/dmitrijs2005/cardkeeper/internal/repositories/cards"
	"github.com/dmitrijs2005/cardkeeper/internal/validation"
)

// Validator checks a card name against an external catalogue.
type Validator interface {
	Validate(ctx context.Context, name string) lookup.Result
}

// AddOptions controls AddCard.
type AddOptions struct {
	// Owner is stamped on the new card; nil for anonymous and local cards.
	Owner *string
	// Merge increments an existing card with the same identity instead of
	// inserting a new row.
	Merge bool
	// Validate asks the Validator about the name first.
	Validate bool
}

// CardService validates input before it reaches the repository.
type CardService struct {
	repo      cards.Repository
	validator Validator
	logger    logging.Logger
	now       func() time.Time
}

type CardServiceOption func(*CardService)

// WithClock replaces time.Now for date_added stamping.
func WithClock(now func() time.Time) CardServiceOption {
	return func(s *CardService) { s.now = now }
}

// NewCardService builds the service. v may be nil, in which case name
// validation is skipped.
func NewCardService(repo cards.Repository, v Validator, logger logging.Logger, opts ...CardServiceOption) *CardService {
	s := &CardService{
		repo:      repo,
		validator: v,
		logger:    logger.With("module", "cards"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddCard validates in and stores it, returning the new or merged id.
func (s *CardService) AddCard(ctx context.Context, in models.CardInput, opts AddOptions) (string, error) {
	valid, err := validation.Card(in)
	if err != nil {
		return "", err
	}

	if opts.Validate && s.validator != nil {
		res := s.validator.Validate(ctx, valid.Name)
		switch res.Verdict {
		case lookup.Invalid:
			return "", common.InvalidField("name", res.Reason)
		case lookup.Unknown:
			// fail open
			s.logger.Warn(ctx, "card name not verified", "name", valid.Name, "reason", res.Reason)
		}
	}

	card := &models.Card{
		Name:       valid.Name,
		SetName:    valid.SetName,
		CardNumber: valid.CardNumber,
		Rarity:     valid.Rarity,
		Quantity:   valid.Quantity,
		IsFavorite: valid.IsFavorite,
		DateAdded:  s.now().UTC(),
		UserID:     opts.Owner,
	}

	var id string
	if opts.Merge {
		id, err = s.repo.UpsertByIdentity(ctx, card)
	} else {
		id, err = s.repo.Create(ctx, card)
	}
	if err != nil {
		s.logger.Error(ctx, "add card failed", "name", card.Name, "merge", opts.Merge, "error", err)
		return "", err
	}

	s.logger.Info(ctx, "card added", "id", id, "name", card.Name, "merge", opts.Merge)
	return id, nil
}

func (s *CardService) GetCard(ctx context.Context, id string) (*models.Card, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *CardService) ListCards(ctx context.Context) ([]models.Card, error) {
	return s.repo.FindAll(ctx)
}

// SearchCards matches a case-insensitive substring of the name.
func (s *CardService) SearchCards(ctx context.Context, name string) ([]models.Card, error) {
	q := strings.TrimSpace(name)
	if q == "" {
		return nil, common.InvalidField("name", "Search term cannot be empty")
	}
	return s.repo.FindByName(ctx, q)
}

func (s *CardService) ListFavorites(ctx context.Context) ([]models.Card, error) {
	return s.repo.FindFavorites(ctx)
}

func (s *CardService) ListByOwner(ctx context.Context, userID string) ([]models.Card, error) {
	return s.repo.FindByOwner(ctx, userID)
}

// UpdateCard applies the non-nil fields of u over the stored card and writes
// them after re-validating the merged record. It reports false when id is
// unknown. date_added is never written.
func (s *CardService) UpdateCard(ctx context.Context, id string, u models.CardUpdate) (bool, error) {
	if u.IsEmpty() {
		return false, common.InvalidField("", "No fields to update")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if common.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	valid, err := validation.Card(u.Apply(*existing).Input())
	if err != nil {
		return false, err
	}

	ok, err := s.repo.Update(ctx, id, normalizedUpdate(u, valid))
	if err != nil {
		s.logger.Error(ctx, "update card failed", "id", id, "error", err)
		return false, err
	}
	if ok {
		s.logger.Info(ctx, "card updated", "id", id)
	}
	return ok, nil
}

// normalizedUpdate keeps the fields set in u, taking their values from the
// validated record. A cleared optional field becomes an empty string.
func normalizedUpdate(u models.CardUpdate, valid models.CardInput) models.CardUpdate {
	var out models.CardUpdate
	if u.Name != nil {
		out.Name = &valid.Name
	}
	if u.SetName != nil {
		out.SetName = &valid.SetName
	}
	if u.CardNumber != nil {
		out.CardNumber = orEmpty(valid.CardNumber)
	}
	if u.Rarity != nil {
		out.Rarity = orEmpty(valid.Rarity)
	}
	if u.Quantity != nil {
		out.Quantity = &valid.Quantity
	}
	if u.IsFavorite != nil {
		out.IsFavorite = &valid.IsFavorite
	}
	return out
}

func orEmpty(s *string) *string {
	if s == nil {
		empty := ""
		return &empty
	}
	return s
}

// DeleteCard removes the card and returns it as it was. An unknown id is a
// *common.NotFoundError.
func (s *CardService) DeleteCard(ctx context.Context, id string) (*models.Card, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error(ctx, "delete card failed", "id", id, "error", err)
		return nil, err
	}
	if !ok {
		return nil, common.CardNotFound(id)
	}
	s.logger.Info(ctx, "card deleted", "id", id, "name", existing.Name)
	return existing, nil
}

func (s *CardService) DeleteAllCards(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		s.logger.Error(ctx, "delete all cards failed", "error", err)
		return 0, err
	}
	s.logger.Warn(ctx, "collection cleared", "deleted", n)
	return n, nil
}

// ToggleFavorite flips is_favorite and returns the updated card. Concurrent
// toggles of one card race; the last write wins.
func (s *CardService) ToggleFavorite(ctx context.Context, id string) (*models.Card, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fav := !existing.IsFavorite
	ok, err := s.repo.Update(ctx, id, models.CardUpdate{IsFavorite: &fav})
	if err != nil {
		return nil, fmt.Errorf("toggle favorite: %w", err)
	}
	if !ok {
		return nil, common.CardNotFound(id)
	}
	existing.IsFavorite = fav
	return existing, nil
}

func (s *CardService) Stats(ctx context.Context) (*models.Stats, error) {
	return s.repo.Stats(ctx)
}

// SystemStats summarizes every card with a per-owner breakdown. Cards
// without an owner are counted in the totals only.
func (s *CardService) SystemStats(ctx context.Context) (*models.SystemStats, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	out := &models.SystemStats{Stats: cards.ComputeStats(all), PerUser: []models.OwnerStats{}}
	index := make(map[string]int)
	for _, c := range all {
		if c.UserID == nil || *c.UserID == "" {
			continue
		}
		i, ok := index[*c.UserID]
		if !ok {
			i = len(out.PerUser)
			index[*c.UserID] = i
			out.PerUser = append(out.PerUser, models.OwnerStats{UserID: *c.UserID})
		}
		out.PerUser[i].Cards++
		out.PerUser[i].Quantity += c.Quantity
		if c.IsFavorite {
			out.PerUser[i].Favorites++
		}
	}
	out.ActiveUsers = len(out.PerUser)
	return out, nil
}

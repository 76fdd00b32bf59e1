// Package validation normalizes and checks individual card fields. Every
// function is pure; failures are *common.ValidationError values.
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/models"
)

const (
	MaxNameLength       = 100
	MaxSetNameLength    = 100
	MaxCardNumberLength = 20
	MaxRarityLength     = 50
	MinQuantity         = 1
	MaxQuantity         = 999
)

// Name trims s and requires 1..MaxNameLength characters.
func Name(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", common.InvalidField("name", "Card name cannot be empty")
	}
	if utf8.RuneCountInString(s) > MaxNameLength {
		return "", common.InvalidField("name", fmt.Sprintf("Card name cannot exceed %d characters", MaxNameLength))
	}
	return s, nil
}

// SetName trims s; an empty set becomes common.DefaultSetName.
func SetName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return common.DefaultSetName, nil
	}
	if utf8.RuneCountInString(s) > MaxSetNameLength {
		return "", common.InvalidField("set_name", fmt.Sprintf("Set name cannot exceed %d characters", MaxSetNameLength))
	}
	return s, nil
}

// Quantity requires MinQuantity..MaxQuantity. The bound applies to every
// entry point, API and CLI alike.
func Quantity(n int) (int, error) {
	if n < MinQuantity {
		return 0, common.InvalidField("quantity", fmt.Sprintf("Quantity must be at least %d", MinQuantity))
	}
	if n > MaxQuantity {
		return 0, common.InvalidField("quantity", fmt.Sprintf("Quantity cannot exceed %d", MaxQuantity))
	}
	return n, nil
}

// QuantityArg parses textual input (CLI, query strings) before applying Quantity.
func QuantityArg(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, common.InvalidField("quantity", "Quantity must be a whole number")
	}
	return Quantity(n)
}

// CardNumber is optional: nil or blank yields nil.
func CardNumber(s *string) (*string, error) {
	return optional(s, "card_number", "Card number", MaxCardNumberLength)
}

// Rarity is optional: nil or blank yields nil.
func Rarity(s *string) (*string, error) {
	return optional(s, "rarity", "Rarity", MaxRarityLength)
}

func optional(s *string, field, label string, max int) (*string, error) {
	if s == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(v) > max {
		return nil, common.InvalidField(field, fmt.Sprintf("%s cannot exceed %d characters", label, max))
	}
	return &v, nil
}

// Card validates every field of in and returns the normalized record.
// The first failing field is reported.
func Card(in models.CardInput) (models.CardInput, error) {
	var (
		out models.CardInput
		err error
	)
	if out.Name, err = Name(in.Name); err != nil {
		return models.CardInput{}, err
	}
	if out.SetName, err = SetName(in.SetName); err != nil {
		return models.CardInput{}, err
	}
	if out.CardNumber, err = CardNumber(in.CardNumber); err != nil {
		return models.CardInput{}, err
	}
	if out.Rarity, err = Rarity(in.Rarity); err != nil {
		return models.CardInput{}, err
	}
	if out.Quantity, err = Quantity(in.Quantity); err != nil {
		return models.CardInput{}, err
	}
	out.IsFavorite = in.IsFavorite
	return out, nil
}

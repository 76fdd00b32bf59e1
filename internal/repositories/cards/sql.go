package cards

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/models"
)

// Helpers shared by the database/sql backends.

const cardColumns = "id, name, set_name, card_number, rarity, quantity, is_favorite, date_added, user_id"

type assignment struct {
	column string
	value  any
}

// assignments lists the columns written by u. An empty card number or
// rarity clears the column.
func assignments(u models.CardUpdate, boolValue func(bool) any) []assignment {
	var out []assignment
	if u.Name != nil {
		out = append(out, assignment{"name", *u.Name})
	}
	if u.SetName != nil {
		out = append(out, assignment{"set_name", *u.SetName})
	}
	if u.CardNumber != nil {
		out = append(out, assignment{"card_number", nullable(u.CardNumber)})
	}
	if u.Rarity != nil {
		out = append(out, assignment{"rarity", nullable(u.Rarity)})
	}
	if u.Quantity != nil {
		out = append(out, assignment{"quantity", *u.Quantity})
	}
	if u.IsFavorite != nil {
		out = append(out, assignment{"is_favorite", boolValue(*u.IsFavorite)})
	}
	return out
}

func nullable(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func sameBool(b bool) any { return b }

// intID parses a local integer key. ok is false for anything else.
func intID(id string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// likePattern builds a substring pattern with LIKE metacharacters escaped
// by a backslash.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrStorage, err)
}

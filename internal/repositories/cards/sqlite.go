package cards

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/dbx"
	"github.com/dmitrijs2005/cardkeeper/internal/models"
	"github.com/dmitrijs2005/cardkeeper/internal/validation"
)

// SQLiteRepository stores cards in a single-file SQLite database.
// date_added is kept as fixed-width UTC text so it sorts chronologically.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository binds the repository to an open, migrated database.
// The caller owns db.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func sqliteBool(b bool) any {
	if b {
		return 1
	}
	return 0
}

func scanSQLiteCard(row interface{ Scan(...any) error }) (*models.Card, error) {
	var (
		c         models.Card
		id        int64
		number    sql.NullString
		rarity    sql.NullString
		favorite  int64
		dateAdded string
		userID    sql.NullString
	)
	if err := row.Scan(&id, &c.Name, &c.SetName, &number, &rarity, &c.Quantity, &favorite, &dateAdded, &userID); err != nil {
		return nil, err
	}
	c.ID = formatID(id)
	c.IsFavorite = favorite != 0
	if number.Valid {
		c.CardNumber = &number.String
	}
	if rarity.Valid {
		c.Rarity = &rarity.String
	}
	if userID.Valid {
		c.UserID = &userID.String
	}
	t, err := models.ParseTimestamp(dateAdded)
	if err != nil {
		return nil, err
	}
	c.DateAdded = t
	return &c, nil
}

func (r *SQLiteRepository) query(ctx context.Context, db dbx.DBTX, op, query string, args ...any) ([]models.Card, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	result := []models.Card{}
	for rows.Next() {
		c, err := scanSQLiteCard(rows)
		if err != nil {
			return nil, storageErr(op, err)
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return result, nil
}

func (r *SQLiteRepository) insert(ctx context.Context, db dbx.DBTX, card *models.Card) (string, error) {
	query := `INSERT INTO cards (name, set_name, card_number, rarity, quantity, is_favorite, date_added, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := db.ExecContext(ctx, query,
		card.Name, card.SetName, nullable(card.CardNumber), nullable(card.Rarity), card.Quantity,
		sqliteBool(card.IsFavorite), models.FormatTimestamp(card.DateAdded), nullable(card.UserID))
	if err != nil {
		return "", storageErr("insert card", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", storageErr("insert card", err)
	}
	return formatID(id), nil
}

func (r *SQLiteRepository) Create(ctx context.Context, card *models.Card) (string, error) {
	return r.insert(ctx, r.db, card)
}

func (r *SQLiteRepository) UpsertByIdentity(ctx context.Context, card *models.Card) (string, error) {
	var id string
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query := `SELECT id, quantity FROM cards
			WHERE name = ? AND set_name = ? AND card_number IS ? AND user_id IS ?
			ORDER BY id LIMIT 1`
		var (
			existing int64
			quantity int
		)
		err := tx.QueryRowContext(ctx, query, card.Name, card.SetName, nullable(card.CardNumber), nullable(card.UserID)).
			Scan(&existing, &quantity)
		if errors.Is(err, sql.ErrNoRows) {
			id, err = r.insert(ctx, tx, card)
			return err
		}
		if err != nil {
			return storageErr("find card identity", err)
		}

		total, err := validation.Quantity(quantity + card.Quantity)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE cards SET quantity = ? WHERE id = ?`, total, existing); err != nil {
			return storageErr("increment card", err)
		}
		id = formatID(existing)
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (*models.Card, error) {
	n, ok := intID(id)
	if !ok {
		return nil, common.CardNotFound(id)
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, n)
	c, err := scanSQLiteCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.CardNotFound(id)
	}
	if err != nil {
		return nil, storageErr("select card", err)
	}
	return c, nil
}

func (r *SQLiteRepository) FindAll(ctx context.Context) ([]models.Card, error) {
	return r.query(ctx, r.db, "select cards",
		`SELECT `+cardColumns+` FROM cards ORDER BY date_added DESC, id DESC`)
}

func (r *SQLiteRepository) FindByName(ctx context.Context, substr string) ([]models.Card, error) {
	// LIKE is case-insensitive for ASCII in SQLite.
	return r.query(ctx, r.db, "search cards",
		`SELECT `+cardColumns+` FROM cards WHERE name LIKE ? ESCAPE '\' ORDER BY name ASC, id ASC`,
		likePattern(substr))
}

func (r *SQLiteRepository) FindFavorites(ctx context.Context) ([]models.Card, error) {
	return r.query(ctx, r.db, "select favorites",
		`SELECT `+cardColumns+` FROM cards WHERE is_favorite = 1 ORDER BY name ASC, id ASC`)
}

func (r *SQLiteRepository) FindByOwner(ctx context.Context, userID string) ([]models.Card, error) {
	return r.query(ctx, r.db, "select owner cards",
		`SELECT `+cardColumns+` FROM cards WHERE user_id = ? ORDER BY date_added DESC, id DESC`, userID)
}

func (r *SQLiteRepository) Update(ctx context.Context, id string, u models.CardUpdate) (bool, error) {
	set := assignments(u, sqliteBool)
	if len(set) == 0 {
		return false, common.InvalidField("", "No fields to update")
	}
	n, ok := intID(id)
	if !ok {
		return false, nil
	}

	cols := make([]string, 0, len(set))
	args := make([]any, 0, len(set)+1)
	for _, a := range set {
		cols = append(cols, a.column+" = ?")
		args = append(args, a.value)
	}
	args = append(args, n)

	query := fmt.Sprintf(`UPDATE cards SET %s WHERE id = ?`, strings.Join(cols, ", "))
	affected, err := dbx.Affected(r.db.ExecContext(ctx, query, args...))
	if err != nil {
		return false, storageErr("update card", err)
	}
	return affected > 0, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, ok := intID(id)
	if !ok {
		return false, nil
	}
	affected, err := dbx.Affected(r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, n))
	if err != nil {
		return false, storageErr("delete card", err)
	}
	return affected > 0, nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) (int64, error) {
	affected, err := dbx.Affected(r.db.ExecContext(ctx, `DELETE FROM cards`))
	if err != nil {
		return 0, storageErr("delete cards", err)
	}
	return affected, nil
}

func (r *SQLiteRepository) Stats(ctx context.Context) (*models.Stats, error) {
	st := models.Stats{MostCommonSet: common.NoSet}
	query := `SELECT COUNT(*), COALESCE(SUM(quantity), 0), COALESCE(SUM(is_favorite <> 0), 0), COUNT(DISTINCT set_name)
		FROM cards`
	err := r.db.QueryRowContext(ctx, query).Scan(&st.TotalCards, &st.TotalQuantity, &st.Favorites, &st.UniqueSets)
	if err != nil {
		return nil, storageErr("card stats", err)
	}

	query = `SELECT set_name FROM cards GROUP BY set_name ORDER BY COUNT(*) DESC, MIN(id) ASC LIMIT 1`
	err = r.db.QueryRowContext(ctx, query).Scan(&st.MostCommonSet)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, storageErr("most common set", err)
	}
	return &st, nil
}

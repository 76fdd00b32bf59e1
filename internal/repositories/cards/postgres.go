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
	"github.com/jackc/pgx/v5/pgconn"
)

// raiseException is the SQLSTATE of a plpgsql RAISE EXCEPTION.
const raiseException = "P0001"

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx)
// opened with the pgx stdlib driver.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanPostgresCard(row interface{ Scan(...any) error }) (*models.Card, error) {
	var (
		c      models.Card
		id     int64
		number sql.NullString
		rarity sql.NullString
		userID sql.NullString
	)
	err := row.Scan(&id, &c.Name, &c.SetName, &number, &rarity, &c.Quantity, &c.IsFavorite, &c.DateAdded, &userID)
	if err != nil {
		return nil, err
	}
	c.ID = formatID(id)
	if number.Valid {
		c.CardNumber = &number.String
	}
	if rarity.Valid {
		c.Rarity = &rarity.String
	}
	if userID.Valid {
		c.UserID = &userID.String
	}
	c.DateAdded = c.DateAdded.UTC()
	return &c, nil
}

// mapPostgresErr turns the quantity guard raised by add_or_increment_card
// into a validation error.
func mapPostgresErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == raiseException {
		return common.InvalidField("quantity", pgErr.Message)
	}
	return storageErr(op, err)
}

func (r *PostgresRepository) query(ctx context.Context, op, query string, args ...any) ([]models.Card, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	result := []models.Card{}
	for rows.Next() {
		c, err := scanPostgresCard(rows)
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

func (r *PostgresRepository) Create(ctx context.Context, card *models.Card) (string, error) {
	query := `INSERT INTO cards (name, set_name, card_number, rarity, quantity, is_favorite, date_added, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		card.Name, card.SetName, nullable(card.CardNumber), nullable(card.Rarity), card.Quantity,
		card.IsFavorite, card.DateAdded.UTC(), nullable(card.UserID)).Scan(&id)
	if err != nil {
		return "", storageErr("insert card", err)
	}
	return formatID(id), nil
}

// UpsertByIdentity delegates to the add_or_increment_card function, which
// locks the matching row so concurrent merges do not lose increments.
func (r *PostgresRepository) UpsertByIdentity(ctx context.Context, card *models.Card) (string, error) {
	query := `SELECT add_or_increment_card($1, $2, $3, $4, $5, $6, $7)`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		card.Name, card.SetName, nullable(card.CardNumber), nullable(card.Rarity), card.Quantity,
		card.IsFavorite, nullable(card.UserID)).Scan(&id)
	if err != nil {
		return "", mapPostgresErr("add or increment card", err)
	}
	return formatID(id), nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Card, error) {
	n, ok := intID(id)
	if !ok {
		return nil, common.CardNotFound(id)
	}
	c, err := scanPostgresCard(r.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = $1`, n))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.CardNotFound(id)
	}
	if err != nil {
		return nil, storageErr("select card", err)
	}
	return c, nil
}

func (r *PostgresRepository) FindAll(ctx context.Context) ([]models.Card, error) {
	return r.query(ctx, "select cards",
		`SELECT `+cardColumns+` FROM cards ORDER BY date_added DESC, id DESC`)
}

func (r *PostgresRepository) FindByName(ctx context.Context, substr string) ([]models.Card, error) {
	return r.query(ctx, "search cards",
		`SELECT `+cardColumns+` FROM cards WHERE name ILIKE $1 ORDER BY name ASC, id ASC`,
		likePattern(substr))
}

func (r *PostgresRepository) FindFavorites(ctx context.Context) ([]models.Card, error) {
	return r.query(ctx, "select favorites",
		`SELECT `+cardColumns+` FROM cards WHERE is_favorite ORDER BY name ASC, id ASC`)
}

func (r *PostgresRepository) FindByOwner(ctx context.Context, userID string) ([]models.Card, error) {
	return r.query(ctx, "select owner cards",
		`SELECT `+cardColumns+` FROM cards WHERE user_id = $1 ORDER BY date_added DESC, id DESC`, userID)
}

func (r *PostgresRepository) Update(ctx context.Context, id string, u models.CardUpdate) (bool, error) {
	set := assignments(u, sameBool)
	if len(set) == 0 {
		return false, common.InvalidField("", "No fields to update")
	}
	n, ok := intID(id)
	if !ok {
		return false, nil
	}

	cols := make([]string, 0, len(set))
	args := make([]any, 0, len(set)+1)
	for i, a := range set {
		cols = append(cols, fmt.Sprintf("%s = $%d", a.column, i+1))
		args = append(args, a.value)
	}
	args = append(args, n)

	query := fmt.Sprintf(`UPDATE cards SET %s WHERE id = $%d`, strings.Join(cols, ", "), len(args))
	affected, err := dbx.Affected(r.db.ExecContext(ctx, query, args...))
	if err != nil {
		return false, storageErr("update card", err)
	}
	return affected > 0, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, ok := intID(id)
	if !ok {
		return false, nil
	}
	affected, err := dbx.Affected(r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, n))
	if err != nil {
		return false, storageErr("delete card", err)
	}
	return affected > 0, nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) (int64, error) {
	affected, err := dbx.Affected(r.db.ExecContext(ctx, `DELETE FROM cards`))
	if err != nil {
		return 0, storageErr("delete cards", err)
	}
	return affected, nil
}

func (r *PostgresRepository) Stats(ctx context.Context) (*models.Stats, error) {
	st := models.Stats{MostCommonSet: common.NoSet}
	query := `SELECT COUNT(*), COALESCE(SUM(quantity), 0), COUNT(*) FILTER (WHERE is_favorite), COUNT(DISTINCT set_name)
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

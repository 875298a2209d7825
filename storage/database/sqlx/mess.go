package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/mess"
)

var messOrderCols = map[string]string{
	"block":   "block",
	"weekday": "weekday",
	"meal":    "meal",
}

type messRepository struct {
	db *sqlx.DB
}

var _ mess.Repository = (*messRepository)(nil) // interface compliance check

func NewMessRepository(db *sqlx.DB) mess.Repository {
	return &messRepository{db: db}
}

type menuRow struct {
	ID        string      `db:"id"`
	Block     string      `db:"block"`
	Weekday   int         `db:"weekday"`
	Meal      string      `db:"meal"`
	Items     null.String `db:"items"`
	UpdatedBy null.String `db:"updated_by"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r menuRow) toEntry() mess.MenuEntry {
	return mess.MenuEntry{
		ID:        r.ID,
		Block:     r.Block,
		Weekday:   r.Weekday,
		Meal:      r.Meal,
		Items:     r.Items.String,
		UpdatedBy: r.UpdatedBy.String,
		UpdatedAt: r.UpdatedAt,
	}
}

func (repo *messRepository) UpsertMenuEntry(ctx context.Context, e mess.MenuEntry) (mess.MenuEntry, error) {
	q := `
INSERT INTO mess_menu (id, block, weekday, meal, items, updated_by, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (block, weekday, meal)
    DO UPDATE SET items = EXCLUDED.items, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at
RETURNING *`
	var row menuRow
	if err := repo.db.GetContext(ctx, &row, q,
		uuid.NewString(), e.Block, e.Weekday, e.Meal, nullString(e.Items), nullString(e.UpdatedBy), e.UpdatedAt,
	); err != nil {
		return mess.MenuEntry{}, errors.Wrap(err, "upserting menu entry")
	}
	return row.toEntry(), nil
}

func (repo *messRepository) QueryMenu(ctx context.Context, filter *mess.QueryFilter, ordering []core.DBOrdering) ([]mess.MenuEntry, error) {
	q := `SELECT * FROM mess_menu WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + itoa(len(args))
	}

	if filter != nil {
		if filter.Block != "" {
			q += ` AND block = ` + arg(filter.Block)
		}
		if filter.Weekday != nil {
			q += ` AND weekday = ` + arg(*filter.Weekday)
		}
		if filter.Meal != "" {
			q += ` AND meal = ` + arg(filter.Meal)
		}
	}
	q += orderBy(ordering, messOrderCols, "block, weekday, meal")

	var rows []menuRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying mess menu")
	}
	entries := make([]mess.MenuEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toEntry())
	}
	return entries, nil
}

func (repo *messRepository) DeleteMenuEntry(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM mess_menu WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting menu entry")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return mess.ErrNotFound
	}
	return nil
}

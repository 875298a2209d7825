package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/visitor"
)

var visitorOrderCols = map[string]string{
	"name":          "name",
	"checked_in_at": "checked_in_at",
}

type visitorRepository struct {
	db *sqlx.DB
}

var _ visitor.Repository = (*visitorRepository)(nil) // interface compliance check

func NewVisitorRepository(db *sqlx.DB) visitor.Repository {
	return &visitorRepository{db: db}
}

type visitRow struct {
	ID           string      `db:"id"`
	StudentID    string      `db:"student_id"`
	Name         string      `db:"name"`
	Relation     null.String `db:"relation"`
	Phone        null.String `db:"phone"`
	CheckedInAt  time.Time   `db:"checked_in_at"`
	CheckedOutAt null.Time   `db:"checked_out_at"`
	CreatedAt    time.Time   `db:"created_at"`
}

func (r visitRow) toVisit() visitor.Visit {
	return visitor.Visit{
		ID:           r.ID,
		StudentID:    r.StudentID,
		Name:         r.Name,
		Relation:     r.Relation.String,
		Phone:        r.Phone.String,
		CheckedInAt:  r.CheckedInAt,
		CheckedOutAt: r.CheckedOutAt.Time,
		CreatedAt:    r.CreatedAt,
	}
}

func (repo *visitorRepository) CreateVisit(ctx context.Context, v visitor.Visit) (visitor.Visit, error) {
	v.ID = uuid.NewString()
	q := `
INSERT INTO visitor (id, student_id, name, relation, phone, checked_in_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := repo.db.ExecContext(ctx, q,
		v.ID, v.StudentID, v.Name, nullString(v.Relation), nullString(v.Phone), v.CheckedInAt, v.CreatedAt,
	); err != nil {
		return visitor.Visit{}, errors.Wrap(err, "inserting visit")
	}
	return v, nil
}

func (repo *visitorRepository) GetVisitByID(ctx context.Context, id string) (visitor.Visit, error) {
	var row visitRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM visitor WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return visitor.Visit{}, visitor.ErrNotFound
		}
		return visitor.Visit{}, errors.Wrap(err, "getting visit")
	}
	return row.toVisit(), nil
}

func (repo *visitorRepository) QueryVisits(ctx context.Context, filter *visitor.QueryFilter, ordering []core.DBOrdering) ([]visitor.Visit, error) {
	q := `SELECT * FROM visitor WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + itoa(len(args))
	}

	if filter != nil {
		if filter.StudentID != "" {
			q += ` AND student_id = ` + arg(filter.StudentID)
		}
		if filter.Open != nil {
			if *filter.Open {
				q += ` AND checked_out_at IS NULL`
			} else {
				q += ` AND checked_out_at IS NOT NULL`
			}
		}
		if filter.Day != "" {
			if day, err := core.ParseDay(filter.Day); err == nil {
				q += ` AND checked_in_at >= ` + arg(day) + ` AND checked_in_at < ` + arg(day.Add(24*time.Hour))
			}
		}
	}
	q += orderBy(ordering, visitorOrderCols, "checked_in_at")

	var rows []visitRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying visits")
	}
	visits := make([]visitor.Visit, 0, len(rows))
	for _, row := range rows {
		visits = append(visits, row.toVisit())
	}
	return visits, nil
}

// SetCheckedOut stamps the checkout time only while the visit is still open.
func (repo *visitorRepository) SetCheckedOut(ctx context.Context, id string, at time.Time) (visitor.Visit, error) {
	q := `
UPDATE visitor
SET checked_out_at = $2
WHERE id = $1 AND checked_out_at IS NULL
RETURNING *`
	var row visitRow
	if err := repo.db.GetContext(ctx, &row, q, id, at); err != nil {
		if isNoRows(err) {
			if _, gerr := repo.GetVisitByID(ctx, id); gerr != nil {
				return visitor.Visit{}, gerr
			}
			return visitor.Visit{}, visitor.ErrAlreadyCheckedOut
		}
		return visitor.Visit{}, errors.Wrap(err, "checking visitor out")
	}
	return row.toVisit(), nil
}

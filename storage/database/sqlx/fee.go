package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/fee"
)

var feeOrderCols = map[string]string{
	"due_date":     "due_date",
	"status":       "status",
	"total_amount": "total_amount",
	"created_at":   "created_at",
}

type feeRepository struct {
	db *sqlx.DB
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *sqlx.DB) fee.Repository {
	return &feeRepository{db: db}
}

type feeRow struct {
	ID          string      `db:"id"`
	StudentID   string      `db:"student_id"`
	Description null.String `db:"description"`
	TotalAmount int64       `db:"total_amount"`
	PaidAmount  int64       `db:"paid_amount"`
	DueDate     time.Time   `db:"due_date"`
	Status      string      `db:"status"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r feeRow) toFee() fee.Fee {
	return fee.Fee{
		ID:          r.ID,
		StudentID:   r.StudentID,
		Description: r.Description.String,
		TotalAmount: r.TotalAmount,
		PaidAmount:  r.PaidAmount,
		DueDate:     r.DueDate,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (repo *feeRepository) CreateFee(ctx context.Context, f fee.Fee) (fee.Fee, error) {
	f.ID = uuid.NewString()
	q := `
INSERT INTO fee (id, student_id, description, total_amount, paid_amount, due_date, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := repo.db.ExecContext(ctx, q,
		f.ID, f.StudentID, nullString(f.Description), f.TotalAmount, f.PaidAmount, f.DueDate,
		f.Status, f.CreatedAt, f.UpdatedAt,
	); err != nil {
		return fee.Fee{}, errors.Wrap(err, "inserting fee")
	}
	return f, nil
}

func (repo *feeRepository) GetFeeByID(ctx context.Context, id string) (fee.Fee, error) {
	var row feeRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM fee WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return fee.Fee{}, fee.ErrNotFound
		}
		return fee.Fee{}, errors.Wrap(err, "getting fee")
	}
	return row.toFee(), nil
}

func (repo *feeRepository) QueryFees(ctx context.Context, filter *fee.QueryFilter, ordering []core.DBOrdering) ([]fee.Fee, error) {
	q := `SELECT * FROM fee WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + itoa(len(args))
	}

	if filter != nil {
		if filter.StudentID != "" {
			q += ` AND student_id = ` + arg(filter.StudentID)
		}
		if filter.Status != "" {
			q += ` AND status = ` + arg(filter.Status)
		}
		if filter.DueFrom != "" {
			if from, err := core.ParseDay(filter.DueFrom); err == nil {
				q += ` AND due_date >= ` + arg(from)
			}
		}
		if filter.DueTo != "" {
			if to, err := core.ParseDay(filter.DueTo); err == nil {
				q += ` AND due_date <= ` + arg(to)
			}
		}
	}
	q += orderBy(ordering, feeOrderCols, "due_date")

	var rows []feeRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying fees")
	}
	fees := make([]fee.Fee, 0, len(rows))
	for _, row := range rows {
		fees = append(fees, row.toFee())
	}
	return fees, nil
}

// ApplyPayment adds to the paid amount and recomputes the status in one
// conditional statement; a payment that would exceed the total matches no row.
func (repo *feeRepository) ApplyPayment(ctx context.Context, id string, amount int64) (fee.Fee, error) {
	q := `
UPDATE fee
SET paid_amount = paid_amount + $2,
    status      = CASE WHEN paid_amount + $2 >= total_amount THEN 'paid' ELSE status END,
    updated_at  = $3
WHERE id = $1 AND paid_amount + $2 <= total_amount
RETURNING *`
	var row feeRow
	if err := repo.db.GetContext(ctx, &row, q, id, amount, time.Now().UTC()); err != nil {
		if isNoRows(err) {
			if _, gerr := repo.GetFeeByID(ctx, id); gerr != nil {
				return fee.Fee{}, gerr
			}
			return fee.Fee{}, fee.ErrInvalidAmount
		}
		return fee.Fee{}, errors.Wrap(err, "applying payment")
	}
	return row.toFee(), nil
}

func (repo *feeRepository) UpdateFee(ctx context.Context, f fee.Fee) (fee.Fee, error) {
	q := `
UPDATE fee
SET description = $2, total_amount = $3, due_date = $4, status = $5, updated_at = $6
WHERE id = $1
RETURNING *`
	var row feeRow
	if err := repo.db.GetContext(ctx, &row, q,
		f.ID, nullString(f.Description), f.TotalAmount, f.DueDate, f.Status, f.UpdatedAt,
	); err != nil {
		if isNoRows(err) {
			return fee.Fee{}, fee.ErrNotFound
		}
		return fee.Fee{}, errors.Wrap(err, "updating fee")
	}
	return row.toFee(), nil
}

func (repo *feeRepository) DeleteFee(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM fee WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting fee")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fee.ErrNotFound
	}
	return nil
}

func (repo *feeRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	q := `
UPDATE fee
SET status = 'overdue', updated_at = $2
WHERE status = 'pending' AND due_date < $1`
	res, err := repo.db.ExecContext(ctx, q, asOf, time.Now().UTC())
	if err != nil {
		return 0, errors.Wrap(err, "marking overdue fees")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

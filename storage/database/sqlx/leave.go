package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/leave"
)

var leaveOrderCols = map[string]string{
	"start_date": "start_date",
	"end_date":   "end_date",
	"status":     "status",
	"created_at": "created_at",
}

type leaveRepository struct {
	db *sqlx.DB
}

var _ leave.Repository = (*leaveRepository)(nil) // interface compliance check

func NewLeaveRepository(db *sqlx.DB) leave.Repository {
	return &leaveRepository{db: db}
}

type leaveRow struct {
	ID        string      `db:"id"`
	StudentID string      `db:"student_id"`
	Block     string      `db:"block"`
	StartDate time.Time   `db:"start_date"`
	EndDate   time.Time   `db:"end_date"`
	Reason    null.String `db:"reason"`
	Status    string      `db:"status"`
	DecidedBy null.String `db:"decided_by"`
	DecidedAt null.Time   `db:"decided_at"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r leaveRow) toLeave() leave.Leave {
	return leave.Leave{
		ID:        r.ID,
		StudentID: r.StudentID,
		Block:     r.Block,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Reason:    r.Reason.String,
		Status:    r.Status,
		DecidedBy: r.DecidedBy.String,
		DecidedAt: r.DecidedAt.Time,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (repo *leaveRepository) CreateLeave(ctx context.Context, l leave.Leave) (leave.Leave, error) {
	l.ID = uuid.NewString()
	q := `
INSERT INTO leave (id, student_id, block, start_date, end_date, reason, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := repo.db.ExecContext(ctx, q,
		l.ID, l.StudentID, l.Block, l.StartDate, l.EndDate, nullString(l.Reason), l.Status,
		l.CreatedAt, l.UpdatedAt,
	); err != nil {
		return leave.Leave{}, errors.Wrap(err, "inserting leave request")
	}
	return l, nil
}

func (repo *leaveRepository) GetLeaveByID(ctx context.Context, id string) (leave.Leave, error) {
	var row leaveRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM leave WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return leave.Leave{}, leave.ErrNotFound
		}
		return leave.Leave{}, errors.Wrap(err, "getting leave request")
	}
	return row.toLeave(), nil
}

func (repo *leaveRepository) QueryLeaves(ctx context.Context, filter *leave.QueryFilter, ordering []core.DBOrdering) ([]leave.Leave, error) {
	q := `SELECT * FROM leave WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + itoa(len(args))
	}

	if filter != nil {
		if filter.StudentID != "" {
			q += ` AND student_id = ` + arg(filter.StudentID)
		}
		if filter.Block != "" {
			q += ` AND block = ` + arg(filter.Block)
		}
		if filter.Status != "" {
			q += ` AND status = ` + arg(filter.Status)
		}
	}
	q += orderBy(ordering, leaveOrderCols, "created_at")

	var rows []leaveRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying leave requests")
	}
	leaves := make([]leave.Leave, 0, len(rows))
	for _, row := range rows {
		leaves = append(leaves, row.toLeave())
	}
	return leaves, nil
}

// UpdateLeaveStatus settles a request conditionally: the write only happens
// while the stored status is still pending, so two racing deciders cannot
// both win.
func (repo *leaveRepository) UpdateLeaveStatus(ctx context.Context, id, status, decidedBy string, decidedAt time.Time) (leave.Leave, error) {
	q := `
UPDATE leave
SET status = $2, decided_by = $3, decided_at = $4, updated_at = $4
WHERE id = $1 AND status = 'pending'
RETURNING *`
	var row leaveRow
	if err := repo.db.GetContext(ctx, &row, q, id, status, nullString(decidedBy), decidedAt); err != nil {
		if isNoRows(err) {
			if _, gerr := repo.GetLeaveByID(ctx, id); gerr != nil {
				return leave.Leave{}, gerr
			}
			return leave.Leave{}, leave.ErrAlreadyDecided
		}
		return leave.Leave{}, errors.Wrap(err, "updating leave status")
	}
	return row.toLeave(), nil
}

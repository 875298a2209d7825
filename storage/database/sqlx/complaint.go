package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/complaint"
)

var complaintOrderCols = map[string]string{
	"status":     "status",
	"category":   "category",
	"created_at": "created_at",
}

type complaintRepository struct {
	db *sqlx.DB
}

var _ complaint.Repository = (*complaintRepository)(nil) // interface compliance check

func NewComplaintRepository(db *sqlx.DB) complaint.Repository {
	return &complaintRepository{db: db}
}

type complaintRow struct {
	ID          string      `db:"id"`
	StudentID   string      `db:"student_id"`
	Block       string      `db:"block"`
	Category    null.String `db:"category"`
	Description null.String `db:"description"`
	Status      string      `db:"status"`
	ResolvedBy  null.String `db:"resolved_by"`
	Resolution  null.String `db:"resolution"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r complaintRow) toComplaint() complaint.Complaint {
	return complaint.Complaint{
		ID:          r.ID,
		StudentID:   r.StudentID,
		Block:       r.Block,
		Category:    r.Category.String,
		Description: r.Description.String,
		Status:      r.Status,
		ResolvedBy:  r.ResolvedBy.String,
		Resolution:  r.Resolution.String,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (repo *complaintRepository) CreateComplaint(ctx context.Context, c complaint.Complaint) (complaint.Complaint, error) {
	c.ID = uuid.NewString()
	q := `
INSERT INTO complaint (id, student_id, block, category, description, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := repo.db.ExecContext(ctx, q,
		c.ID, c.StudentID, c.Block, nullString(c.Category), nullString(c.Description), c.Status,
		c.CreatedAt, c.UpdatedAt,
	); err != nil {
		return complaint.Complaint{}, errors.Wrap(err, "inserting complaint")
	}
	return c, nil
}

func (repo *complaintRepository) GetComplaintByID(ctx context.Context, id string) (complaint.Complaint, error) {
	var row complaintRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM complaint WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return complaint.Complaint{}, complaint.ErrNotFound
		}
		return complaint.Complaint{}, errors.Wrap(err, "getting complaint")
	}
	return row.toComplaint(), nil
}

func (repo *complaintRepository) QueryComplaints(ctx context.Context, filter *complaint.QueryFilter, ordering []core.DBOrdering) ([]complaint.Complaint, error) {
	q := `SELECT * FROM complaint WHERE 1=1`
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
		if filter.Category != "" {
			q += ` AND category = ` + arg(filter.Category)
		}
	}
	q += orderBy(ordering, complaintOrderCols, "created_at")

	var rows []complaintRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying complaints")
	}
	complaints := make([]complaint.Complaint, 0, len(rows))
	for _, row := range rows {
		complaints = append(complaints, row.toComplaint())
	}
	return complaints, nil
}

func (repo *complaintRepository) UpdateComplaint(ctx context.Context, c complaint.Complaint) (complaint.Complaint, error) {
	q := `
UPDATE complaint
SET status = $2, resolved_by = $3, resolution = $4, updated_at = $5
WHERE id = $1
RETURNING *`
	var row complaintRow
	if err := repo.db.GetContext(ctx, &row, q,
		c.ID, c.Status, nullString(c.ResolvedBy), nullString(c.Resolution), c.UpdatedAt,
	); err != nil {
		if isNoRows(err) {
			return complaint.Complaint{}, complaint.ErrNotFound
		}
		return complaint.Complaint{}, errors.Wrap(err, "updating complaint")
	}
	return row.toComplaint(), nil
}

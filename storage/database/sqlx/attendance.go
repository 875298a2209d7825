package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/attendance"
)

var attendanceOrderCols = map[string]string{
	"day":          "day",
	"student_code": "student_code",
	"status":       "status",
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

type attendanceRow struct {
	ID          string      `db:"id"`
	StudentID   string      `db:"student_id"`
	StudentCode null.String `db:"student_code"`
	Block       string      `db:"block"`
	RoomNumber  null.String `db:"room_number"`
	Day         time.Time   `db:"day"`
	Status      string      `db:"status"`
	MarkedBy    null.String `db:"marked_by"`
	CreatedAt   time.Time   `db:"created_at"`
}

func (r attendanceRow) toRecord() attendance.Record {
	return attendance.Record{
		ID:          r.ID,
		StudentID:   r.StudentID,
		StudentCode: r.StudentCode.String,
		Block:       r.Block,
		RoomNumber:  r.RoomNumber.String,
		Day:         r.Day,
		Status:      r.Status,
		MarkedBy:    r.MarkedBy.String,
		CreatedAt:   r.CreatedAt,
	}
}

// ReplaceDay drops and reinserts the whole (block, day) slice inside one
// transaction so readers never see a half-written day.
func (repo *attendanceRepository) ReplaceDay(ctx context.Context, block string, day time.Time, records []attendance.Record) ([]attendance.Record, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `DELETE FROM attendance WHERE block = $1 AND day = $2`, block, day); err != nil {
		return nil, errors.Wrap(err, "clearing day")
	}

	q := `
INSERT INTO attendance (id, student_id, student_code, block, room_number, day, status, marked_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	out := make([]attendance.Record, 0, len(records))
	for _, rec := range records {
		rec.ID = uuid.NewString()
		if _, err = tx.ExecContext(ctx, q,
			rec.ID, rec.StudentID, nullString(rec.StudentCode), rec.Block, nullString(rec.RoomNumber),
			rec.Day, rec.Status, nullString(rec.MarkedBy), rec.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "inserting attendance record")
		}
		out = append(out, rec)
	}

	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}
	return out, nil
}

func (repo *attendanceRepository) QueryAttendance(ctx context.Context, filter *attendance.QueryFilter, ordering []core.DBOrdering) ([]attendance.Record, error) {
	q := `SELECT * FROM attendance WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + itoa(len(args))
	}

	if filter != nil {
		if filter.Block != "" {
			q += ` AND block = ` + arg(filter.Block)
		}
		if filter.Day != "" {
			if day, err := core.ParseDay(filter.Day); err == nil {
				q += ` AND day = ` + arg(day)
			}
		}
		if filter.StudentID != "" {
			q += ` AND student_id = ` + arg(filter.StudentID)
		}
		if filter.Status != "" {
			q += ` AND status = ` + arg(filter.Status)
		}
	}
	q += orderBy(ordering, attendanceOrderCols, "day, student_code")

	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

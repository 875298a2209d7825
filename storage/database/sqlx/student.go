package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/student"
)

var studentOrderCols = map[string]string{
	"code":           "code",
	"name":           "name",
	"block":          "block",
	"status":         "status",
	"admission_date": "admission_date",
	"created_at":     "created_at",
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

type studentRow struct {
	ID            string      `db:"id"`
	Code          string      `db:"code"`
	Name          null.String `db:"name"`
	Email         null.String `db:"email"`
	Phone         null.String `db:"phone"`
	GuardianName  null.String `db:"guardian_name"`
	GuardianPhone null.String `db:"guardian_phone"`
	Block         string      `db:"block"`
	Status        string      `db:"status"`
	RoomID        null.String `db:"room_id"`
	RoomNumber    null.String `db:"room_number"`
	BedNumber     null.Int    `db:"bed_number"`
	AdmissionDate time.Time   `db:"admission_date"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func (r studentRow) toStudent() student.Student {
	return student.Student{
		ID:            r.ID,
		Code:          r.Code,
		Name:          r.Name.String,
		Email:         r.Email.String,
		Phone:         r.Phone.String,
		GuardianName:  r.GuardianName.String,
		GuardianPhone: r.GuardianPhone.String,
		Block:         r.Block,
		Status:        r.Status,
		RoomID:        r.RoomID.String,
		RoomNumber:    r.RoomNumber.String,
		BedNumber:     r.BedNumber.Int,
		AdmissionDate: r.AdmissionDate,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	stu.ID = uuid.NewString()
	q := `
INSERT INTO student (id, code, name, email, phone, guardian_name, guardian_phone, block, status,
                     room_id, room_number, bed_number, admission_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	if _, err := repo.db.ExecContext(ctx, q,
		stu.ID, stu.Code, nullString(stu.Name), nullString(stu.Email), nullString(stu.Phone),
		nullString(stu.GuardianName), nullString(stu.GuardianPhone), stu.Block, stu.Status,
		nullString(stu.RoomID), nullString(stu.RoomNumber), nullInt(stu.BedNumber),
		stu.AdmissionDate, stu.CreatedAt, stu.UpdatedAt,
	); err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return stu, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM student WHERE id = $1`, id); err != nil {
		if isNoRows(err) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	return row.toStudent(), nil
}

func (repo *studentRepository) GetStudentByCode(ctx context.Context, code string) (student.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM student WHERE code = $1`, code); err != nil {
		if isNoRows(err) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student by code")
	}
	return row.toStudent(), nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	q := `SELECT * FROM student WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + itoa(len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			q += ` AND (name ILIKE ` + p + ` OR code ILIKE ` + p + ` OR email ILIKE ` + p + `)`
		}
		if filter.Block != "" {
			q += ` AND block = ` + arg(filter.Block)
		}
		if filter.Status != "" {
			q += ` AND status = ` + arg(filter.Status)
		}
		if filter.RoomID != "" {
			q += ` AND room_id = ` + arg(filter.RoomID)
		}
	}
	q += orderBy(ordering, studentOrderCols, "code")

	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toStudent())
	}
	return students, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	q := `
UPDATE student
SET name = $2, email = $3, phone = $4, guardian_name = $5, guardian_phone = $6, status = $7,
    room_id = $8, room_number = $9, bed_number = $10, updated_at = $11
WHERE id = $1
RETURNING *`
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, q,
		stu.ID, nullString(stu.Name), nullString(stu.Email), nullString(stu.Phone),
		nullString(stu.GuardianName), nullString(stu.GuardianPhone), stu.Status,
		nullString(stu.RoomID), nullString(stu.RoomNumber), nullInt(stu.BedNumber), stu.UpdatedAt,
	); err != nil {
		if isNoRows(err) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	return row.toStudent(), nil
}

func (repo *studentRepository) UsedBeds(ctx context.Context, roomID string) ([]int, error) {
	q := `
SELECT bed_number FROM student
WHERE room_id = $1 AND status = 'active' AND bed_number IS NOT NULL
ORDER BY bed_number`
	var beds []int
	if err := repo.db.SelectContext(ctx, &beds, q, roomID); err != nil {
		return nil, errors.Wrap(err, "listing used beds")
	}
	return beds, nil
}

// NextStudentSeq bumps the per-(year, block) admission counter in one
// statement; sequences are monotonic and never reused.
func (repo *studentRepository) NextStudentSeq(ctx context.Context, year int, block string) (int, error) {
	q := `
INSERT INTO student_code_counter (year, block, seq)
VALUES ($1, $2, 1)
ON CONFLICT (year, block) DO UPDATE SET seq = student_code_counter.seq + 1
RETURNING seq`
	var seq int
	if err := repo.db.GetContext(ctx, &seq, q, year, block); err != nil {
		return 0, errors.Wrap(err, "incrementing student code counter")
	}
	return seq, nil
}

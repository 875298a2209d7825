package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/student"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("attendance record not found")
	// ErrUnknownRosterEntry is returned in strict mode when a sheet names a
	// student that cannot be matched to an active student of the block.
	ErrUnknownRosterEntry = errors.New("unknown roster entry")
)

type (
	Repository interface {
		// ReplaceDay swaps the whole (block, day) slice atomically: existing
		// records for the pair are dropped and the given ones inserted.
		ReplaceDay(ctx context.Context, block string, day time.Time, records []Record) ([]Record, error)
		QueryAttendance(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Record, error)
	}

	// StudentDirectory resolves roster entries against the student ledger.
	StudentDirectory interface {
		GetByID(id string) (student.Student, error)
		GetByCode(code string) (student.Student, error)
	}

	ServiceInterface interface {
		MarkBulk(bs BulkSheet, markedBy string) (BulkResult, error)
		Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Record, error)
		ExportDay(block, day string) ([]byte, error)
	}

	Service struct {
		repo     Repository
		students StudentDirectory
		strict   bool
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(conf *core.Config, repo Repository, students StudentDirectory) *Service {
	return &Service{
		repo:     repo,
		students: students,
		strict:   conf.StrictAttendanceRoster,
	}
}

// MarkBulk records a full day's sheet for a block, replacing whatever was
// previously recorded for that (block, day). Unresolvable entries are skipped
// and reported; in strict mode the first one fails the whole submission and
// nothing is written. An empty sheet clears the day.
func (svc *Service) MarkBulk(bs BulkSheet, markedBy string) (BulkResult, error) {
	ctx := context.Background()

	day, err := core.ParseDay(bs.Day)
	if err != nil {
		return BulkResult{}, core.NewValidationError(err, core.FieldError{Field: "day", Error: "invalid date"})
	}

	res := BulkResult{Block: bs.Block, Day: day}
	now := nowFunc().UTC()

	records := make([]Record, 0, len(bs.Marks))
	seen := make(map[string]struct{}, len(bs.Marks))
	for _, m := range bs.Marks {
		stu, reason := svc.resolve(m, bs.Block)
		if reason == "" {
			if _, dup := seen[stu.ID]; dup {
				reason = "duplicate entry"
			}
		}
		if reason != "" {
			if svc.strict {
				return BulkResult{}, errors.Wrapf(ErrUnknownRosterEntry, "%s (%s)", rosterRef(m), reason)
			}
			res.Skipped = append(res.Skipped, SkippedMark{
				StudentID:   m.StudentID,
				StudentCode: m.StudentCode,
				Reason:      reason,
			})
			continue
		}

		seen[stu.ID] = struct{}{}
		records = append(records, Record{
			StudentID:   stu.ID,
			StudentCode: stu.Code,
			Block:       bs.Block,
			RoomNumber:  stu.RoomNumber,
			Day:         day,
			Status:      m.Status,
			MarkedBy:    markedBy,
			CreatedAt:   now,
		})
	}

	if _, err = svc.repo.ReplaceDay(ctx, bs.Block, day, records); err != nil {
		return BulkResult{}, err
	}
	res.Marked = len(records)
	return res, nil
}

func (svc *Service) Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Record, error) {
	return svc.repo.QueryAttendance(context.Background(), filter, ordering)
}

func (svc *Service) resolve(m Mark, block string) (student.Student, string) {
	var (
		stu student.Student
		err error
	)
	switch {
	case m.StudentCode != "":
		stu, err = svc.students.GetByCode(m.StudentCode)
	case m.StudentID != "":
		stu, err = svc.students.GetByID(m.StudentID)
	default:
		return student.Student{}, "no student reference"
	}
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return student.Student{}, "student not found"
		}
		return student.Student{}, err.Error()
	}
	if !stu.IsActive() {
		return student.Student{}, "student removed"
	}
	if stu.Block != block {
		return student.Student{}, "student belongs to another block"
	}
	return stu, ""
}

func rosterRef(m Mark) string {
	if m.StudentCode != "" {
		return m.StudentCode
	}
	if m.StudentID != "" {
		return m.StudentID
	}
	return fmt.Sprintf("%+v", m)
}

package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) ReplaceDay(_ context.Context, block string, day time.Time, records []attendance.Record) ([]attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, rec := range repo.db.table {
		if rec.Block == block && rec.Day.Equal(day) {
			delete(repo.db.table, id)
		}
	}

	out := make([]attendance.Record, 0, len(records))
	for _, rec := range records {
		rec.ID = uuid.NewString()
		repo.db.table[rec.ID] = &rec
		out = append(out, rec)
	}
	return out, nil
}

func (repo *attendanceRepository) QueryAttendance(_ context.Context, filter *attendance.QueryFilter, _ []core.DBOrdering) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var day time.Time
	if filter != nil && filter.Day != "" {
		day, _ = core.ParseDay(filter.Day)
	}

	var records []attendance.Record
	for _, rec := range repo.db.table {
		if filter != nil {
			if filter.Block != "" && rec.Block != filter.Block {
				continue
			}
			if !day.IsZero() && !rec.Day.Equal(day) {
				continue
			}
			if filter.StudentID != "" && rec.StudentID != filter.StudentID {
				continue
			}
			if filter.Status != "" && rec.Status != filter.Status {
				continue
			}
		}
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Day.Equal(records[j].Day) {
			return records[i].Day.Before(records[j].Day)
		}
		return records[i].StudentCode < records[j].StudentCode
	})
	return records, nil
}

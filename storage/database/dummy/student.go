package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/student"
)

type studentRepository struct {
	db      *studentTable
	counter *counterTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student, counter: db.counter}
}

func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.table))
	for _, stu := range repo.db.table {
		students = append(students, *stu)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Code < students[j].Code })
	return students
}

func (repo *studentRepository) CreateStudent(_ context.Context, stu student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stu.ID = uuid.NewString()
	repo.db.table[stu.ID] = &stu
	return stu, nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if stu, ok := repo.db.table[id]; ok {
		return *stu, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByCode(_ context.Context, code string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, stu := range repo.db.table {
		if stu.Code == code {
			return *stu, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter *student.QueryFilter, _ []core.DBOrdering) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := repo.query()
	if filter == nil || filter.IsEmpty() {
		return students, nil
	}

	var filtered []student.Student
	for _, stu := range students {
		if filter.Search != "" {
			search := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(stu.Name), search) &&
				!strings.Contains(strings.ToLower(stu.Code), search) &&
				!strings.Contains(strings.ToLower(stu.Email), search) {
				continue
			}
		}
		if filter.Block != "" && stu.Block != filter.Block {
			continue
		}
		if filter.Status != "" && stu.Status != filter.Status {
			continue
		}
		if filter.RoomID != "" && stu.RoomID != filter.RoomID {
			continue
		}
		filtered = append(filtered, stu)
	}
	return filtered, nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, stu student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[stu.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	// Code and CreatedAt are immutable
	stu.Code = orig.Code
	stu.CreatedAt = orig.CreatedAt
	repo.db.table[stu.ID] = &stu
	return stu, nil
}

func (repo *studentRepository) UsedBeds(_ context.Context, roomID string) ([]int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var beds []int
	for _, stu := range repo.db.table {
		if stu.Status == student.StatusActive && stu.RoomID == roomID && stu.BedNumber > 0 {
			beds = append(beds, stu.BedNumber)
		}
	}
	sort.Ints(beds)
	return beds, nil
}

func (repo *studentRepository) NextStudentSeq(_ context.Context, year int, block string) (int, error) {
	repo.counter.Lock()
	defer repo.counter.Unlock()

	key := counterKey{year: year, block: block}
	repo.counter.seqs[key]++
	return repo.counter.seqs[key], nil
}

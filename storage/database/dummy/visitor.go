package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/visitor"
)

type visitorRepository struct {
	db *visitorTable
}

var _ visitor.Repository = (*visitorRepository)(nil) // interface compliance check

func NewVisitorRepository(db *DB) visitor.Repository {
	return &visitorRepository{db: db.visitor}
}

func (repo *visitorRepository) CreateVisit(_ context.Context, v visitor.Visit) (visitor.Visit, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	v.ID = uuid.NewString()
	repo.db.table[v.ID] = &v
	return v, nil
}

func (repo *visitorRepository) GetVisitByID(_ context.Context, id string) (visitor.Visit, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if v, ok := repo.db.table[id]; ok {
		return *v, nil
	}
	return visitor.Visit{}, visitor.ErrNotFound
}

func (repo *visitorRepository) QueryVisits(_ context.Context, filter *visitor.QueryFilter, _ []core.DBOrdering) ([]visitor.Visit, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var day time.Time
	if filter != nil && filter.Day != "" {
		day, _ = core.ParseDay(filter.Day)
	}

	var visits []visitor.Visit
	for _, v := range repo.db.table {
		if filter != nil {
			if filter.StudentID != "" && v.StudentID != filter.StudentID {
				continue
			}
			if filter.Open != nil && v.IsOpen() != *filter.Open {
				continue
			}
			if !day.IsZero() && !core.Day(v.CheckedInAt).Equal(day) {
				continue
			}
		}
		visits = append(visits, *v)
	}
	sort.Slice(visits, func(i, j int) bool { return visits[i].CheckedInAt.Before(visits[j].CheckedInAt) })
	return visits, nil
}

func (repo *visitorRepository) SetCheckedOut(_ context.Context, id string, at time.Time) (visitor.Visit, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	v, ok := repo.db.table[id]
	if !ok {
		return visitor.Visit{}, visitor.ErrNotFound
	}
	if !v.IsOpen() {
		return visitor.Visit{}, visitor.ErrAlreadyCheckedOut
	}
	v.CheckedOutAt = at
	return *v, nil
}

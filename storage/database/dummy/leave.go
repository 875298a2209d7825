package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/leave"
)

type leaveRepository struct {
	db *leaveTable
}

var _ leave.Repository = (*leaveRepository)(nil) // interface compliance check

func NewLeaveRepository(db *DB) leave.Repository {
	return &leaveRepository{db: db.leave}
}

func (repo *leaveRepository) CreateLeave(_ context.Context, l leave.Leave) (leave.Leave, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	l.ID = uuid.NewString()
	repo.db.table[l.ID] = &l
	return l, nil
}

func (repo *leaveRepository) GetLeaveByID(_ context.Context, id string) (leave.Leave, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if l, ok := repo.db.table[id]; ok {
		return *l, nil
	}
	return leave.Leave{}, leave.ErrNotFound
}

func (repo *leaveRepository) QueryLeaves(_ context.Context, filter *leave.QueryFilter, _ []core.DBOrdering) ([]leave.Leave, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var leaves []leave.Leave
	for _, l := range repo.db.table {
		if filter != nil {
			if filter.StudentID != "" && l.StudentID != filter.StudentID {
				continue
			}
			if filter.Block != "" && l.Block != filter.Block {
				continue
			}
			if filter.Status != "" && l.Status != filter.Status {
				continue
			}
		}
		leaves = append(leaves, *l)
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].CreatedAt.Before(leaves[j].CreatedAt) })
	return leaves, nil
}

func (repo *leaveRepository) UpdateLeaveStatus(_ context.Context, id, status, decidedBy string, decidedAt time.Time) (leave.Leave, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	l, ok := repo.db.table[id]
	if !ok {
		return leave.Leave{}, leave.ErrNotFound
	}
	if l.Status != leave.StatusPending {
		return leave.Leave{}, leave.ErrAlreadyDecided
	}
	l.Status = status
	l.DecidedBy = decidedBy
	l.DecidedAt = decidedAt
	l.UpdatedAt = decidedAt
	return *l, nil
}

package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/complaint"
)

type complaintRepository struct {
	db *complaintTable
}

var _ complaint.Repository = (*complaintRepository)(nil) // interface compliance check

func NewComplaintRepository(db *DB) complaint.Repository {
	return &complaintRepository{db: db.complaint}
}

func (repo *complaintRepository) CreateComplaint(_ context.Context, c complaint.Complaint) (complaint.Complaint, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c.ID = uuid.NewString()
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *complaintRepository) GetComplaintByID(_ context.Context, id string) (complaint.Complaint, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return *c, nil
	}
	return complaint.Complaint{}, complaint.ErrNotFound
}

func (repo *complaintRepository) QueryComplaints(_ context.Context, filter *complaint.QueryFilter, _ []core.DBOrdering) ([]complaint.Complaint, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var complaints []complaint.Complaint
	for _, c := range repo.db.table {
		if filter != nil {
			if filter.StudentID != "" && c.StudentID != filter.StudentID {
				continue
			}
			if filter.Block != "" && c.Block != filter.Block {
				continue
			}
			if filter.Status != "" && c.Status != filter.Status {
				continue
			}
			if filter.Category != "" && c.Category != filter.Category {
				continue
			}
		}
		complaints = append(complaints, *c)
	}
	sort.Slice(complaints, func(i, j int) bool { return complaints[i].CreatedAt.Before(complaints[j].CreatedAt) })
	return complaints, nil
}

func (repo *complaintRepository) UpdateComplaint(_ context.Context, c complaint.Complaint) (complaint.Complaint, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[c.ID]
	if !ok {
		return complaint.Complaint{}, complaint.ErrNotFound
	}
	c.CreatedAt = orig.CreatedAt
	repo.db.table[c.ID] = &c
	return c, nil
}

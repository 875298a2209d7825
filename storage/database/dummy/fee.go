package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/fee"
)

type feeRepository struct {
	db *feeTable
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *DB) fee.Repository {
	return &feeRepository{db: db.fee}
}

func (repo *feeRepository) query() []fee.Fee {
	fees := make([]fee.Fee, 0, len(repo.db.table))
	for _, f := range repo.db.table {
		fees = append(fees, *f)
	}
	sort.Slice(fees, func(i, j int) bool { return fees[i].DueDate.Before(fees[j].DueDate) })
	return fees
}

func (repo *feeRepository) CreateFee(_ context.Context, f fee.Fee) (fee.Fee, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	f.ID = uuid.NewString()
	repo.db.table[f.ID] = &f
	return f, nil
}

func (repo *feeRepository) GetFeeByID(_ context.Context, id string) (fee.Fee, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if f, ok := repo.db.table[id]; ok {
		return *f, nil
	}
	return fee.Fee{}, fee.ErrNotFound
}

func (repo *feeRepository) QueryFees(_ context.Context, filter *fee.QueryFilter, _ []core.DBOrdering) ([]fee.Fee, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	fees := repo.query()
	if filter == nil || filter.IsEmpty() {
		return fees, nil
	}

	var dueFrom, dueTo time.Time
	if filter.DueFrom != "" {
		dueFrom, _ = core.ParseDay(filter.DueFrom)
	}
	if filter.DueTo != "" {
		dueTo, _ = core.ParseDay(filter.DueTo)
	}

	var filtered []fee.Fee
	for _, f := range fees {
		if filter.StudentID != "" && f.StudentID != filter.StudentID {
			continue
		}
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		if !dueFrom.IsZero() && f.DueDate.Before(dueFrom) {
			continue
		}
		if !dueTo.IsZero() && f.DueDate.After(dueTo) {
			continue
		}
		filtered = append(filtered, f)
	}
	return filtered, nil
}

func (repo *feeRepository) ApplyPayment(_ context.Context, id string, amount int64) (fee.Fee, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	f, ok := repo.db.table[id]
	if !ok {
		return fee.Fee{}, fee.ErrNotFound
	}
	if f.PaidAmount+amount > f.TotalAmount {
		return fee.Fee{}, fee.ErrInvalidAmount
	}
	f.PaidAmount += amount
	if f.PaidAmount >= f.TotalAmount {
		f.Status = fee.StatusPaid
	}
	f.UpdatedAt = time.Now().UTC()
	return *f, nil
}

func (repo *feeRepository) UpdateFee(_ context.Context, f fee.Fee) (fee.Fee, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[f.ID]
	if !ok {
		return fee.Fee{}, fee.ErrNotFound
	}
	// paid amount only moves through ApplyPayment
	f.PaidAmount = orig.PaidAmount
	f.CreatedAt = orig.CreatedAt
	repo.db.table[f.ID] = &f
	return f, nil
}

func (repo *feeRepository) DeleteFee(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return fee.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *feeRepository) MarkOverdue(_ context.Context, asOf time.Time) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for _, f := range repo.db.table {
		if f.Status == fee.StatusPending && f.DueDate.Before(asOf) {
			f.Status = fee.StatusOverdue
			f.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

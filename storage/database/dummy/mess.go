package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/mess"
)

type messRepository struct {
	db *messTable
}

var _ mess.Repository = (*messRepository)(nil) // interface compliance check

func NewMessRepository(db *DB) mess.Repository {
	return &messRepository{db: db.mess}
}

func (repo *messRepository) UpsertMenuEntry(_ context.Context, e mess.MenuEntry) (mess.MenuEntry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.Block == e.Block && existing.Weekday == e.Weekday && existing.Meal == e.Meal {
			e.ID = existing.ID
			repo.db.table[e.ID] = &e
			return e, nil
		}
	}
	e.ID = uuid.NewString()
	repo.db.table[e.ID] = &e
	return e, nil
}

func (repo *messRepository) QueryMenu(_ context.Context, filter *mess.QueryFilter, _ []core.DBOrdering) ([]mess.MenuEntry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var entries []mess.MenuEntry
	for _, e := range repo.db.table {
		if filter != nil {
			if filter.Block != "" && e.Block != filter.Block {
				continue
			}
			if filter.Weekday != nil && e.Weekday != *filter.Weekday {
				continue
			}
			if filter.Meal != "" && e.Meal != filter.Meal {
				continue
			}
		}
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Block != entries[j].Block {
			return entries[i].Block < entries[j].Block
		}
		if entries[i].Weekday != entries[j].Weekday {
			return entries[i].Weekday < entries[j].Weekday
		}
		return entries[i].Meal < entries[j].Meal
	})
	return entries, nil
}

func (repo *messRepository) DeleteMenuEntry(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return mess.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

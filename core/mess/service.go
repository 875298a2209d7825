package mess

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core"
)

var (
	nowFunc = time.Now // mockable

	ErrNotFound = errors.New("menu entry not found")
)

type (
	Repository interface {
		// UpsertMenuEntry inserts or overwrites the entry keyed (block, weekday, meal).
		UpsertMenuEntry(ctx context.Context, e MenuEntry) (MenuEntry, error)
		QueryMenu(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]MenuEntry, error)
		DeleteMenuEntry(ctx context.Context, id string) error
	}

	ServiceInterface interface {
		Set(se SetMenuEntry, updatedBy string) (MenuEntry, error)
		Query(filter *QueryFilter, ordering []core.DBOrdering) ([]MenuEntry, error)
		Delete(id string) error
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Set(se SetMenuEntry, updatedBy string) (MenuEntry, error) {
	e := MenuEntry{
		Block:     se.Block,
		Weekday:   se.Weekday,
		Meal:      se.Meal,
		Items:     se.Items,
		UpdatedBy: updatedBy,
		UpdatedAt: nowFunc().UTC(),
	}
	return svc.repo.UpsertMenuEntry(context.Background(), e)
}

func (svc *Service) Query(filter *QueryFilter, ordering []core.DBOrdering) ([]MenuEntry, error) {
	return svc.repo.QueryMenu(context.Background(), filter, ordering)
}

func (svc *Service) Delete(id string) error {
	return svc.repo.DeleteMenuEntry(context.Background(), id)
}

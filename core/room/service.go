package room

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core"
)

var (
	// errors
	ErrNotFound         = errors.New("room not found")
	ErrRoomExists       = errors.New("a room with this number already exists in this block")
	ErrRoomOccupied     = errors.New("room still has occupants")
	ErrRoomFull         = errors.New("room is full")
	ErrInvalidOccupancy = errors.New("occupancy out of range")
)

type (
	Repository interface {
		CheckRoomUniqueness(ctx context.Context, block, number string, excludedRooms ...Room) error
		CreateRoom(ctx context.Context, rm Room) (Room, error)
		GetRoomByID(ctx context.Context, id string) (Room, error)
		QueryRooms(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Room, error)
		// IncrementOccupied adjusts the occupancy counter by delta as one
		// conditional step: the resulting value must stay within [0, capacity].
		// ErrRoomFull is returned when it would exceed capacity and
		// ErrInvalidOccupancy when it would drop below zero.
		IncrementOccupied(ctx context.Context, id string, delta int) (Room, error)
		// SetOccupied overwrites the counter; ErrInvalidOccupancy outside [0, capacity].
		SetOccupied(ctx context.Context, id string, value int) (Room, error)
		// DeleteRoom removes the room only while occupied == 0; ErrRoomOccupied otherwise.
		DeleteRoom(ctx context.Context, id string) error
		// ReconcileOccupied recomputes every room's counter from the actual
		// count of active students assigned to it and returns the rooms whose
		// counter drifted.
		ReconcileOccupied(ctx context.Context) ([]Room, error)
	}

	ServiceInterface interface {
		CheckUniqueness(block, number string, excludedRooms ...Room) error
		Create(nr NewRoom) (Room, error)
		GetByID(id string) (Room, error)
		Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Room, error)
		IncrementOccupied(id string, delta int) (Room, error)
		SetOccupied(id string, value int) (Room, error)
		Delete(id string) error
		Reconcile() ([]Room, error)
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckUniqueness(block, number string, excludedRooms ...Room) error {
	if err := svc.repo.CheckRoomUniqueness(context.Background(), block, number, excludedRooms...); err != nil {
		if errors.Cause(err) == ErrRoomExists {
			return core.NewValidationError(err, core.FieldError{Field: "number", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(nr NewRoom) (Room, error) {
	now := time.Now().UTC()
	rm := Room{
		Block:     nr.Block,
		Number:    nr.Number,
		Floor:     nr.Floor,
		Capacity:  nr.Capacity,
		Occupied:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateRoom(context.Background(), rm)
}

func (svc *Service) GetByID(id string) (Room, error) {
	return svc.repo.GetRoomByID(context.Background(), id)
}

func (svc *Service) Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Room, error) {
	return svc.repo.QueryRooms(context.Background(), filter, ordering)
}

func (svc *Service) IncrementOccupied(id string, delta int) (Room, error) {
	return svc.repo.IncrementOccupied(context.Background(), id, delta)
}

func (svc *Service) SetOccupied(id string, value int) (Room, error) {
	return svc.repo.SetOccupied(context.Background(), id, value)
}

func (svc *Service) Delete(id string) error {
	return svc.repo.DeleteRoom(context.Background(), id)
}

func (svc *Service) Reconcile() ([]Room, error) {
	return svc.repo.ReconcileOccupied(context.Background())
}

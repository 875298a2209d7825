package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/room"
	"github.com/trezcool/makazi/core/student"
)

type roomRepository struct {
	db       *roomTable
	students *studentTable
}

var _ room.Repository = (*roomRepository)(nil) // interface compliance check

func NewRoomRepository(db *DB) room.Repository {
	return &roomRepository{db: db.room, students: db.student}
}

func (repo *roomRepository) query() []room.Room {
	rooms := make([]room.Room, 0, len(repo.db.table))
	for _, rm := range repo.db.table {
		rooms = append(rooms, *rm)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Block != rooms[j].Block {
			return rooms[i].Block < rooms[j].Block
		}
		return rooms[i].Number < rooms[j].Number
	})
	return rooms
}

func (repo *roomRepository) CheckRoomUniqueness(_ context.Context, block, number string, excludedRooms ...room.Room) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]struct{}, len(excludedRooms))
	for _, rm := range excludedRooms {
		excluded[rm.ID] = struct{}{}
	}

	for _, rm := range repo.db.table {
		if _, skip := excluded[rm.ID]; skip {
			continue
		}
		if rm.Block == block && rm.Number == number {
			return room.ErrRoomExists
		}
	}
	return nil
}

func (repo *roomRepository) CreateRoom(_ context.Context, rm room.Room) (room.Room, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rm.ID = uuid.NewString()
	repo.db.table[rm.ID] = &rm
	return rm, nil
}

func (repo *roomRepository) GetRoomByID(_ context.Context, id string) (room.Room, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rm, ok := repo.db.table[id]; ok {
		return *rm, nil
	}
	return room.Room{}, room.ErrNotFound
}

func (repo *roomRepository) QueryRooms(_ context.Context, filter *room.QueryFilter, _ []core.DBOrdering) ([]room.Room, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rooms := repo.query()
	if filter == nil || filter.IsEmpty() {
		return rooms, nil
	}

	var filtered []room.Room
	for _, rm := range rooms {
		if filter.Search != "" && !strings.Contains(strings.ToLower(rm.Number), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Block != "" && rm.Block != filter.Block {
			continue
		}
		if filter.Floor != nil && rm.Floor != *filter.Floor {
			continue
		}
		if filter.HasSpace != nil && rm.IsFull() == *filter.HasSpace {
			continue
		}
		filtered = append(filtered, rm)
	}
	return filtered, nil
}

func (repo *roomRepository) IncrementOccupied(_ context.Context, id string, delta int) (room.Room, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rm, ok := repo.db.table[id]
	if !ok {
		return room.Room{}, room.ErrNotFound
	}
	next := rm.Occupied + delta
	if next > rm.Capacity {
		return room.Room{}, room.ErrRoomFull
	}
	if next < 0 {
		return room.Room{}, room.ErrInvalidOccupancy
	}
	rm.Occupied = next
	return *rm, nil
}

func (repo *roomRepository) SetOccupied(_ context.Context, id string, value int) (room.Room, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rm, ok := repo.db.table[id]
	if !ok {
		return room.Room{}, room.ErrNotFound
	}
	if value < 0 || value > rm.Capacity {
		return room.Room{}, room.ErrInvalidOccupancy
	}
	rm.Occupied = value
	return *rm, nil
}

func (repo *roomRepository) DeleteRoom(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	rm, ok := repo.db.table[id]
	if !ok {
		return room.ErrNotFound
	}
	if rm.Occupied > 0 {
		return room.ErrRoomOccupied
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *roomRepository) ReconcileOccupied(_ context.Context) ([]room.Room, error) {
	// count active students per room first so lock order stays student -> room
	counts := make(map[string]int)
	repo.students.RLock()
	for _, stu := range repo.students.table {
		if stu.Status == student.StatusActive && stu.RoomID != "" {
			counts[stu.RoomID]++
		}
	}
	repo.students.RUnlock()

	repo.db.Lock()
	defer repo.db.Unlock()

	var drifted []room.Room
	for id, rm := range repo.db.table {
		if actual := counts[id]; rm.Occupied != actual {
			rm.Occupied = actual
			drifted = append(drifted, *rm)
		}
	}
	sort.Slice(drifted, func(i, j int) bool {
		if drifted[i].Block != drifted[j].Block {
			return drifted[i].Block < drifted[j].Block
		}
		return drifted[i].Number < drifted[j].Number
	})
	return drifted, nil
}

package student

import (
	"sort"
	"sync"
)

// roomLocks serializes allocation work per room so the bed-resolution read and
// the occupancy write behave as one step (two admissions racing for the last
// bed of the same room are ordered, not interleaved).
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*sync.Mutex)}
}

func (rl *roomLocks) get(roomID string) *sync.Mutex {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.locks[roomID]
	if !ok {
		l = new(sync.Mutex)
		rl.locks[roomID] = l
	}
	return l
}

// Lock acquires the lock for a single room.
func (rl *roomLocks) Lock(roomID string) func() {
	l := rl.get(roomID)
	l.Lock()
	return l.Unlock
}

// LockPair acquires locks for two rooms in a deterministic order so that
// concurrent transfers between the same pair cannot deadlock.
func (rl *roomLocks) LockPair(roomA, roomB string) func() {
	if roomA == roomB || roomB == "" {
		return rl.Lock(roomA)
	}
	if roomA == "" {
		return rl.Lock(roomB)
	}

	ids := []string{roomA, roomB}
	sort.Strings(ids)
	first, second := rl.get(ids[0]), rl.get(ids[1])
	first.Lock()
	second.Lock()
	return func() {
		second.Unlock()
		first.Unlock()
	}
}

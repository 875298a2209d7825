package student_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/room"
	"github.com/trezcool/makazi/core/student"
	dummydb "github.com/trezcool/makazi/storage/database/dummy"
)

type testEnv struct {
	roomSvc room.ServiceInterface
	svc     student.ServiceInterface
}

func setup(t *testing.T) *testEnv {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("opening dummy db failed: %v", err)
	}
	conf := &core.Config{
		Blocks:            []string{"A", "B"},
		StudentCodePrefix: "MKZ",
	}
	roomSvc := room.NewService(dummydb.NewRoomRepository(db))
	return &testEnv{
		roomSvc: roomSvc,
		svc:     student.NewService(conf, dummydb.NewStudentRepository(db), roomSvc, nil),
	}
}

func createRoom(t *testing.T, svc room.ServiceInterface, block, number string, capacity int) room.Room {
	t.Helper()
	rm, err := svc.Create(room.NewRoom{Block: block, Number: number, Capacity: capacity})
	if err != nil {
		t.Fatalf("creating room failed: %v", err)
	}
	return rm
}

func Test_Service_Admit(t *testing.T) {
	env := setup(t)
	rm := createRoom(t, env.roomSvc, "A", "101", 2)
	strayRoom := createRoom(t, env.roomSvc, "B", "201", 2)

	t.Run("without a room", func(t *testing.T) {
		stu, err := env.svc.Admit(student.NewStudent{Name: "John Doe", Block: "A"})
		if err != nil {
			t.Fatalf("Admit() failed, %v", err)
		}
		wantPrefix := fmt.Sprintf("MKZ%02dA", time.Now().Year()%100)
		if len(stu.Code) != len(wantPrefix)+3 || stu.Code[:len(wantPrefix)] != wantPrefix {
			t.Errorf("Admit() code = %v; want prefix %v", stu.Code, wantPrefix)
		}
		if !stu.IsActive() || stu.HasRoom() {
			t.Errorf("Admit() = %+v; want active and unassigned", stu)
		}
	})

	t.Run("with a room", func(t *testing.T) {
		stu, err := env.svc.Admit(student.NewStudent{Name: "Jane Doe", Block: "A", RoomID: rm.ID})
		if err != nil {
			t.Fatalf("Admit() failed, %v", err)
		}
		if stu.BedNumber != 1 || stu.RoomNumber != "101" {
			t.Errorf("Admit() bed/room = %v/%v; want 1/101", stu.BedNumber, stu.RoomNumber)
		}
		got, _ := env.roomSvc.GetByID(rm.ID)
		if got.Occupied != 1 {
			t.Errorf("Occupied = %v; want 1", got.Occupied)
		}
	})

	t.Run("taken preferred bed falls back to smallest free", func(t *testing.T) {
		stu, err := env.svc.Admit(student.NewStudent{Name: "Jim Doe", Block: "A", RoomID: rm.ID, BedNumber: 1})
		if err != nil {
			t.Fatalf("Admit() failed, %v", err)
		}
		if stu.BedNumber != 2 {
			t.Errorf("Admit() bed = %v; want 2", stu.BedNumber)
		}
	})

	t.Run("full room", func(t *testing.T) {
		_, err := env.svc.Admit(student.NewStudent{Name: "Late Comer", Block: "A", RoomID: rm.ID})
		if errors.Cause(err) != room.ErrRoomFull {
			t.Errorf("Admit() error = %v, wantErr %v", err, room.ErrRoomFull)
		}
		got, _ := env.roomSvc.GetByID(rm.ID)
		if got.Occupied != 2 {
			t.Errorf("Occupied = %v; want 2", got.Occupied)
		}
	})

	t.Run("room of another block", func(t *testing.T) {
		_, err := env.svc.Admit(student.NewStudent{Name: "Lost", Block: "A", RoomID: strayRoom.ID})
		if errors.Cause(err) != student.ErrRoomBlockMismatch {
			t.Errorf("Admit() error = %v, wantErr %v", err, student.ErrRoomBlockMismatch)
		}
	})
}

// Concurrent admissions must never oversubscribe a room: exactly capacity
// admissions succeed and every winner holds a distinct bed.
func Test_Service_Admit_concurrent(t *testing.T) {
	env := setup(t)
	rm := createRoom(t, env.roomSvc, "A", "101", 2)

	const n = 6
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted []student.Student
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stu, err := env.svc.Admit(student.NewStudent{
				Name:   fmt.Sprintf("Student %d", i),
				Block:  "A",
				RoomID: rm.ID,
			})
			if err != nil {
				if errors.Cause(err) != room.ErrRoomFull {
					t.Errorf("Admit() error = %v, wantErr %v", err, room.ErrRoomFull)
				}
				return
			}
			mu.Lock()
			admitted = append(admitted, stu)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if len(admitted) != rm.Capacity {
		t.Fatalf("admitted = %v; want %v", len(admitted), rm.Capacity)
	}
	beds := make(map[int]bool)
	for _, stu := range admitted {
		if beds[stu.BedNumber] {
			t.Errorf("bed %v assigned twice", stu.BedNumber)
		}
		beds[stu.BedNumber] = true
	}
	got, _ := env.roomSvc.GetByID(rm.ID)
	if got.Occupied != rm.Capacity {
		t.Errorf("Occupied = %v; want %v", got.Occupied, rm.Capacity)
	}
}

func Test_Service_Remove(t *testing.T) {
	env := setup(t)
	rm := createRoom(t, env.roomSvc, "A", "101", 2)

	stu, err := env.svc.Admit(student.NewStudent{Name: "John Doe", Block: "A", RoomID: rm.ID})
	if err != nil {
		t.Fatalf("Admit() failed, %v", err)
	}

	t.Run("clears the assignment and frees the bed", func(t *testing.T) {
		removed, err := env.svc.Remove(stu.ID)
		if err != nil {
			t.Fatalf("Remove() failed, %v", err)
		}
		if removed.IsActive() || removed.HasRoom() || removed.BedNumber != 0 {
			t.Errorf("Remove() = %+v; want removed and unassigned", removed)
		}
		got, _ := env.roomSvc.GetByID(rm.ID)
		if got.Occupied != 0 {
			t.Errorf("Occupied = %v; want 0", got.Occupied)
		}
	})

	t.Run("is not repeatable", func(t *testing.T) {
		if _, err := env.svc.Remove(stu.ID); errors.Cause(err) != student.ErrStudentRemoved {
			t.Errorf("Remove() error = %v, wantErr %v", err, student.ErrStudentRemoved)
		}
		got, _ := env.roomSvc.GetByID(rm.ID)
		if got.Occupied != 0 {
			t.Errorf("Occupied = %v; want 0", got.Occupied)
		}
	})

	t.Run("freed bed is reused, codes are not", func(t *testing.T) {
		next, err := env.svc.Admit(student.NewStudent{Name: "Jane Doe", Block: "A", RoomID: rm.ID})
		if err != nil {
			t.Fatalf("Admit() failed, %v", err)
		}
		if next.BedNumber != 1 {
			t.Errorf("Admit() bed = %v; want 1", next.BedNumber)
		}
		if next.Code == stu.Code {
			t.Errorf("Admit() code %v reused", next.Code)
		}
	})
}

func Test_Service_TransferRoom(t *testing.T) {
	env := setup(t)
	src := createRoom(t, env.roomSvc, "A", "101", 2)
	dst := createRoom(t, env.roomSvc, "A", "102", 2)
	strayRoom := createRoom(t, env.roomSvc, "B", "201", 2)

	stu, err := env.svc.Admit(student.NewStudent{Name: "John Doe", Block: "A", RoomID: src.ID})
	if err != nil {
		t.Fatalf("Admit() failed, %v", err)
	}

	t.Run("room of another block", func(t *testing.T) {
		_, err := env.svc.TransferRoom(stu.ID, student.TransferRequest{RoomID: strayRoom.ID})
		if errors.Cause(err) != student.ErrRoomBlockMismatch {
			t.Errorf("TransferRoom() error = %v, wantErr %v", err, student.ErrRoomBlockMismatch)
		}
	})

	t.Run("moves the occupancy", func(t *testing.T) {
		moved, err := env.svc.TransferRoom(stu.ID, student.TransferRequest{RoomID: dst.ID})
		if err != nil {
			t.Fatalf("TransferRoom() failed, %v", err)
		}
		if moved.RoomID != dst.ID || moved.RoomNumber != "102" || moved.BedNumber != 1 {
			t.Errorf("TransferRoom() = %+v; want room 102 bed 1", moved)
		}
		srcGot, _ := env.roomSvc.GetByID(src.ID)
		dstGot, _ := env.roomSvc.GetByID(dst.ID)
		if srcGot.Occupied != 0 || dstGot.Occupied != 1 {
			t.Errorf("Occupied = %v/%v; want 0/1", srcGot.Occupied, dstGot.Occupied)
		}
	})

	t.Run("same-room rebed keeps the counter", func(t *testing.T) {
		moved, err := env.svc.TransferRoom(stu.ID, student.TransferRequest{RoomID: dst.ID, BedNumber: 2})
		if err != nil {
			t.Fatalf("TransferRoom() failed, %v", err)
		}
		if moved.BedNumber != 2 {
			t.Errorf("TransferRoom() bed = %v; want 2", moved.BedNumber)
		}
		dstGot, _ := env.roomSvc.GetByID(dst.ID)
		if dstGot.Occupied != 1 {
			t.Errorf("Occupied = %v; want 1", dstGot.Occupied)
		}
	})

	t.Run("removed students cannot move", func(t *testing.T) {
		if _, err := env.svc.Remove(stu.ID); err != nil {
			t.Fatalf("Remove() failed, %v", err)
		}
		_, err := env.svc.TransferRoom(stu.ID, student.TransferRequest{RoomID: src.ID})
		if errors.Cause(err) != student.ErrStudentRemoved {
			t.Errorf("TransferRoom() error = %v, wantErr %v", err, student.ErrStudentRemoved)
		}
	})
}

// hookedStudentRepo runs a one-shot hook right after the first GetStudentByID
// returns, so another operation can slip in before the caller acts on the
// snapshot it just read.
type hookedStudentRepo struct {
	student.Repository
	mu        sync.Mutex
	afterRead func()
}

func (repo *hookedStudentRepo) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	stu, err := repo.Repository.GetStudentByID(ctx, id)
	repo.mu.Lock()
	hook := repo.afterRead
	repo.afterRead = nil
	repo.mu.Unlock()
	if hook != nil {
		hook()
	}
	return stu, err
}

// A removal landing between the transfer's first read and its lock
// acquisition must win: the transfer may not resurrect the student or leave
// either counter shifted.
func Test_Service_TransferRoom_concurrentRemove(t *testing.T) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("opening dummy db failed: %v", err)
	}
	conf := &core.Config{
		Blocks:            []string{"A", "B"},
		StudentCodePrefix: "MKZ",
	}
	roomSvc := room.NewService(dummydb.NewRoomRepository(db))
	repo := &hookedStudentRepo{Repository: dummydb.NewStudentRepository(db)}
	svc := student.NewService(conf, repo, roomSvc, nil)

	src := createRoom(t, roomSvc, "A", "101", 2)
	dst := createRoom(t, roomSvc, "A", "102", 2)

	stu, err := svc.Admit(student.NewStudent{Name: "John Doe", Block: "A", RoomID: src.ID})
	if err != nil {
		t.Fatalf("Admit() failed, %v", err)
	}

	repo.afterRead = func() {
		if _, err := svc.Remove(stu.ID); err != nil {
			t.Errorf("Remove() failed, %v", err)
		}
	}

	_, err = svc.TransferRoom(stu.ID, student.TransferRequest{RoomID: dst.ID})
	if errors.Cause(err) != student.ErrStudentRemoved {
		t.Errorf("TransferRoom() error = %v, wantErr %v", err, student.ErrStudentRemoved)
	}

	got, err := svc.GetByID(stu.ID)
	if err != nil {
		t.Fatalf("GetByID() failed, %v", err)
	}
	if got.IsActive() || got.HasRoom() || got.BedNumber != 0 {
		t.Errorf("GetByID() = %+v; want removed and unassigned", got)
	}
	srcGot, _ := roomSvc.GetByID(src.ID)
	dstGot, _ := roomSvc.GetByID(dst.ID)
	if srcGot.Occupied != 0 || dstGot.Occupied != 0 {
		t.Errorf("Occupied = %v/%v; want 0/0", srcGot.Occupied, dstGot.Occupied)
	}
}

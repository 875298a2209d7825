package room_test

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/room"
	"github.com/trezcool/makazi/core/student"
	dummydb "github.com/trezcool/makazi/storage/database/dummy"
)

type testEnv struct {
	svc    room.ServiceInterface
	stuSvc student.ServiceInterface
}

func setup(t *testing.T) *testEnv {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("opening dummy db failed: %v", err)
	}
	conf := &core.Config{Blocks: []string{"A", "B"}, StudentCodePrefix: "MKZ"}
	svc := room.NewService(dummydb.NewRoomRepository(db))
	return &testEnv{
		svc:    svc,
		stuSvc: student.NewService(conf, dummydb.NewStudentRepository(db), svc, nil),
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

func Test_Service_SetOccupied(t *testing.T) {
	env := setup(t)
	rm := createRoom(t, env.svc, "A", "101", 2)

	tests := []struct {
		name    string
		value   int
		wantErr error
	}{
		{name: "within capacity", value: 2},
		{name: "above capacity", value: 3, wantErr: room.ErrInvalidOccupancy},
		{name: "negative", value: -1, wantErr: room.ErrInvalidOccupancy},
		{name: "zero", value: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.svc.SetOccupied(rm.ID, tt.value)
			if errors.Cause(err) != tt.wantErr {
				t.Fatalf("SetOccupied() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got.Occupied != tt.value {
				t.Errorf("SetOccupied() = %v; want %v", got.Occupied, tt.value)
			}
		})
	}
}

func Test_Service_Delete(t *testing.T) {
	env := setup(t)
	rm := createRoom(t, env.svc, "A", "101", 2)

	stu, err := env.stuSvc.Admit(student.NewStudent{Name: "John Doe", Block: "A", RoomID: rm.ID})
	if err != nil {
		t.Fatalf("Admit() failed, %v", err)
	}

	t.Run("occupied rooms cannot go", func(t *testing.T) {
		if err := env.svc.Delete(rm.ID); errors.Cause(err) != room.ErrRoomOccupied {
			t.Errorf("Delete() error = %v, wantErr %v", err, room.ErrRoomOccupied)
		}
	})

	t.Run("vacated rooms can", func(t *testing.T) {
		if _, err := env.stuSvc.Remove(stu.ID); err != nil {
			t.Fatalf("Remove() failed, %v", err)
		}
		if err := env.svc.Delete(rm.ID); err != nil {
			t.Fatalf("Delete() failed, %v", err)
		}
		if _, err := env.svc.GetByID(rm.ID); errors.Cause(err) != room.ErrNotFound {
			t.Errorf("GetByID() error = %v, wantErr %v", err, room.ErrNotFound)
		}
	})
}

func Test_Service_Reconcile(t *testing.T) {
	env := setup(t)
	drifted := createRoom(t, env.svc, "A", "101", 4)
	sound := createRoom(t, env.svc, "A", "102", 2)

	if _, err := env.stuSvc.Admit(student.NewStudent{Name: "John Doe", Block: "A", RoomID: drifted.ID}); err != nil {
		t.Fatalf("Admit() failed, %v", err)
	}
	if _, err := env.stuSvc.Admit(student.NewStudent{Name: "Jane Doe", Block: "A", RoomID: sound.ID}); err != nil {
		t.Fatalf("Admit() failed, %v", err)
	}
	// simulate counter drift
	if _, err := env.svc.SetOccupied(drifted.ID, 3); err != nil {
		t.Fatalf("SetOccupied() failed, %v", err)
	}

	corrected, err := env.svc.Reconcile()
	if err != nil {
		t.Fatalf("Reconcile() failed, %v", err)
	}
	if len(corrected) != 1 || corrected[0].ID != drifted.ID || corrected[0].Occupied != 1 {
		t.Fatalf("Reconcile() = %+v; want room 101 back at 1", corrected)
	}

	got, _ := env.svc.GetByID(sound.ID)
	if got.Occupied != 1 {
		t.Errorf("Occupied = %v; want 1", got.Occupied)
	}

	t.Run("a clean ledger stays untouched", func(t *testing.T) {
		corrected, err := env.svc.Reconcile()
		if err != nil {
			t.Fatalf("Reconcile() failed, %v", err)
		}
		if len(corrected) != 0 {
			t.Errorf("Reconcile() = %+v; want none", corrected)
		}
	})
}

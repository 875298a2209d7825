package complaint_test

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/complaint"
	"github.com/trezcool/makazi/core/room"
	"github.com/trezcool/makazi/core/student"
	"github.com/trezcool/makazi/core/user"
	dummydb "github.com/trezcool/makazi/storage/database/dummy"
)

type testEnv struct {
	svc    complaint.ServiceInterface
	stuSvc student.ServiceInterface
}

func setup(t *testing.T) *testEnv {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("opening dummy db failed: %v", err)
	}
	conf := &core.Config{Blocks: []string{"A", "B"}, StudentCodePrefix: "MKZ"}
	stuSvc := student.NewService(conf, dummydb.NewStudentRepository(db), room.NewService(dummydb.NewRoomRepository(db)), nil)
	return &testEnv{
		svc:    complaint.NewService(dummydb.NewComplaintRepository(db), stuSvc),
		stuSvc: stuSvc,
	}
}

func Test_Service_Advance(t *testing.T) {
	env := setup(t)

	stu, err := env.stuSvc.Admit(student.NewStudent{Name: "John Doe", Block: "A"})
	if err != nil {
		t.Fatalf("Admit() failed, %v", err)
	}
	c, err := env.svc.File(complaint.NewComplaint{StudentID: stu.ID, Category: "plumbing", Description: "leaking tap"})
	if err != nil {
		t.Fatalf("File() failed, %v", err)
	}
	if c.Status != complaint.StatusOpen || c.Block != "A" {
		t.Fatalf("File() = %+v; want open on block A", c)
	}

	wardenA := user.User{Username: "wardena", Roles: user.WardenRoles, Block: "A"}
	wardenB := user.User{Username: "wardenb", Roles: user.WardenRoles, Block: "B"}

	t.Run("wardens of another block cannot act", func(t *testing.T) {
		_, err := env.svc.Advance(c.ID, complaint.Progress{Status: complaint.StatusInProgress}, wardenB)
		if errors.Cause(err) != complaint.ErrNotPermitted {
			t.Errorf("Advance() error = %v, wantErr %v", err, complaint.ErrNotPermitted)
		}
	})

	t.Run("open to in_progress", func(t *testing.T) {
		got, err := env.svc.Advance(c.ID, complaint.Progress{Status: complaint.StatusInProgress}, wardenA)
		if err != nil {
			t.Fatalf("Advance() failed, %v", err)
		}
		if got.Status != complaint.StatusInProgress {
			t.Errorf("Advance() status = %v; want %v", got.Status, complaint.StatusInProgress)
		}
	})

	t.Run("in_progress cannot loop", func(t *testing.T) {
		_, err := env.svc.Advance(c.ID, complaint.Progress{Status: complaint.StatusInProgress}, wardenA)
		if errors.Cause(err) != complaint.ErrInvalidTransition {
			t.Errorf("Advance() error = %v, wantErr %v", err, complaint.ErrInvalidTransition)
		}
	})

	t.Run("resolving stamps the actor", func(t *testing.T) {
		got, err := env.svc.Advance(c.ID, complaint.Progress{Status: complaint.StatusResolved, Resolution: "tap replaced"}, wardenA)
		if err != nil {
			t.Fatalf("Advance() failed, %v", err)
		}
		if got.Status != complaint.StatusResolved || got.Resolution != "tap replaced" || got.ResolvedBy != "wardena" {
			t.Errorf("Advance() = %+v; want resolved by wardena", got)
		}
	})

	t.Run("settled complaints never change", func(t *testing.T) {
		_, err := env.svc.Advance(c.ID, complaint.Progress{Status: complaint.StatusDismissed}, wardenA)
		if errors.Cause(err) != complaint.ErrAlreadySettled {
			t.Errorf("Advance() error = %v, wantErr %v", err, complaint.ErrAlreadySettled)
		}
	})
}

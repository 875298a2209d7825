package visitor_test

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/room"
	"github.com/trezcool/makazi/core/student"
	"github.com/trezcool/makazi/core/visitor"
	dummydb "github.com/trezcool/makazi/storage/database/dummy"
)

type testEnv struct {
	svc    visitor.ServiceInterface
	stuSvc student.ServiceInterface
}

func setup(t *testing.T) *testEnv {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("opening dummy db failed: %v", err)
	}
	conf := &core.Config{Blocks: []string{"A"}, StudentCodePrefix: "MKZ"}
	stuSvc := student.NewService(conf, dummydb.NewStudentRepository(db), room.NewService(dummydb.NewRoomRepository(db)), nil)
	return &testEnv{
		svc:    visitor.NewService(dummydb.NewVisitorRepository(db), stuSvc),
		stuSvc: stuSvc,
	}
}

func Test_Service_CheckInOut(t *testing.T) {
	env := setup(t)

	stu, err := env.stuSvc.Admit(student.NewStudent{Name: "John Doe", Block: "A"})
	if err != nil {
		t.Fatalf("Admit() failed, %v", err)
	}

	t.Run("unknown student", func(t *testing.T) {
		_, err := env.svc.CheckIn(visitor.NewVisit{StudentID: "ghost", Name: "Ghost Parent"})
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) || vErr.Fields[0].Field != "student_id" {
			t.Errorf("CheckIn() error = %v; want a student_id field error", err)
		}
	})

	var v visitor.Visit
	t.Run("check in", func(t *testing.T) {
		v, err = env.svc.CheckIn(visitor.NewVisit{StudentID: stu.ID, Name: "Jane Doe", Relation: "mother"})
		if err != nil {
			t.Fatalf("CheckIn() failed, %v", err)
		}
		if v.CheckedInAt.IsZero() || !v.CheckedOutAt.IsZero() {
			t.Errorf("CheckIn() = %+v; want an open visit", v)
		}
	})

	t.Run("open visits are queryable", func(t *testing.T) {
		open := true
		visits, err := env.svc.Query(&visitor.QueryFilter{StudentID: stu.ID, Open: &open}, nil)
		if err != nil {
			t.Fatalf("Query() failed, %v", err)
		}
		if len(visits) != 1 {
			t.Errorf("Query() = %v visits; want 1", len(visits))
		}
	})

	t.Run("check out", func(t *testing.T) {
		got, err := env.svc.CheckOut(v.ID)
		if err != nil {
			t.Fatalf("CheckOut() failed, %v", err)
		}
		if got.CheckedOutAt.IsZero() {
			t.Errorf("CheckOut() = %+v; want a closed visit", got)
		}
	})

	t.Run("checkouts are terminal", func(t *testing.T) {
		if _, err := env.svc.CheckOut(v.ID); errors.Cause(err) != visitor.ErrAlreadyCheckedOut {
			t.Errorf("CheckOut() error = %v, wantErr %v", err, visitor.ErrAlreadyCheckedOut)
		}
	})

	t.Run("removed students cannot receive visits", func(t *testing.T) {
		if _, err := env.stuSvc.Remove(stu.ID); err != nil {
			t.Fatalf("Remove() failed, %v", err)
		}
		_, err := env.svc.CheckIn(visitor.NewVisit{StudentID: stu.ID, Name: "Jane Doe"})
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) || vErr.Fields[0].Field != "student_id" {
			t.Errorf("CheckIn() error = %v; want a student_id field error", err)
		}
	})
}

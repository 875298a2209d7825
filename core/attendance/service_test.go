package attendance_test

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/attendance"
	"github.com/trezcool/makazi/core/room"
	"github.com/trezcool/makazi/core/student"
	dummydb "github.com/trezcool/makazi/storage/database/dummy"
)

type testEnv struct {
	svc    attendance.ServiceInterface
	stuSvc student.ServiceInterface
}

func setup(t *testing.T, strict bool) *testEnv {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("opening dummy db failed: %v", err)
	}
	conf := &core.Config{
		Blocks:                 []string{"A", "B"},
		StudentCodePrefix:      "MKZ",
		StrictAttendanceRoster: strict,
	}
	stuSvc := student.NewService(conf, dummydb.NewStudentRepository(db), room.NewService(dummydb.NewRoomRepository(db)), nil)
	return &testEnv{
		svc:    attendance.NewService(conf, dummydb.NewAttendanceRepository(db), stuSvc),
		stuSvc: stuSvc,
	}
}

func admitStudent(t *testing.T, svc student.ServiceInterface, name, block string) student.Student {
	t.Helper()
	stu, err := svc.Admit(student.NewStudent{Name: name, Block: block})
	if err != nil {
		t.Fatalf("admitting student failed: %v", err)
	}
	return stu
}

func Test_Service_MarkBulk(t *testing.T) {
	env := setup(t, false)

	stu1 := admitStudent(t, env.stuSvc, "John Doe", "A")
	stu2 := admitStudent(t, env.stuSvc, "Jane Doe", "A")
	strayB := admitStudent(t, env.stuSvc, "Stray", "B")
	gone := admitStudent(t, env.stuSvc, "Gone", "A")
	if _, err := env.stuSvc.Remove(gone.ID); err != nil {
		t.Fatalf("Remove() failed, %v", err)
	}

	t.Run("unresolvable entries are skipped and reported", func(t *testing.T) {
		res, err := env.svc.MarkBulk(attendance.BulkSheet{
			Block: "A",
			Day:   "2026-08-28",
			Marks: []attendance.Mark{
				{StudentID: stu1.ID, Status: attendance.StatusPresent},
				{StudentCode: stu2.Code, Status: attendance.StatusAbsent},
				{StudentID: strayB.ID, Status: attendance.StatusPresent},
				{StudentID: gone.ID, Status: attendance.StatusPresent},
				{StudentID: "ghost", Status: attendance.StatusPresent},
				{Status: attendance.StatusPresent},
				{StudentCode: stu1.Code, Status: attendance.StatusAbsent},
			},
		}, "wardena")
		if err != nil {
			t.Fatalf("MarkBulk() failed, %v", err)
		}
		if res.Marked != 2 {
			t.Errorf("MarkBulk() marked = %v; want 2", res.Marked)
		}
		wantReasons := map[string]string{
			strayB.ID: "student belongs to another block",
			gone.ID:   "student removed",
			"ghost":   "student not found",
			"":        "no student reference",
			stu1.Code: "duplicate entry",
		}
		if len(res.Skipped) != len(wantReasons) {
			t.Fatalf("MarkBulk() skipped = %v; want %v", len(res.Skipped), len(wantReasons))
		}
		for _, sk := range res.Skipped {
			key := sk.StudentID
			if key == "" {
				key = sk.StudentCode
			}
			if want := wantReasons[key]; sk.Reason != want {
				t.Errorf("MarkBulk() skipped %q reason = %q; want %q", key, sk.Reason, want)
			}
		}
	})

	t.Run("resubmission replaces the day", func(t *testing.T) {
		_, err := env.svc.MarkBulk(attendance.BulkSheet{
			Block: "A",
			Day:   "2026-08-28",
			Marks: []attendance.Mark{{StudentID: stu1.ID, Status: attendance.StatusAbsent}},
		}, "wardena")
		if err != nil {
			t.Fatalf("MarkBulk() failed, %v", err)
		}
		records, err := env.svc.Query(&attendance.QueryFilter{Block: "A", Day: "2026-08-28"}, nil)
		if err != nil {
			t.Fatalf("Query() failed, %v", err)
		}
		if len(records) != 1 || records[0].Status != attendance.StatusAbsent {
			t.Errorf("Query() = %+v; want a single absent record", records)
		}
	})

	t.Run("an empty sheet clears the day", func(t *testing.T) {
		res, err := env.svc.MarkBulk(attendance.BulkSheet{Block: "A", Day: "2026-08-28"}, "wardena")
		if err != nil {
			t.Fatalf("MarkBulk() failed, %v", err)
		}
		if res.Marked != 0 {
			t.Errorf("MarkBulk() marked = %v; want 0", res.Marked)
		}
		records, _ := env.svc.Query(&attendance.QueryFilter{Block: "A", Day: "2026-08-28"}, nil)
		if len(records) != 0 {
			t.Errorf("Query() = %v records; want 0", len(records))
		}
	})
}

func Test_Service_MarkBulk_strict(t *testing.T) {
	env := setup(t, true)
	stu := admitStudent(t, env.stuSvc, "John Doe", "A")

	_, err := env.svc.MarkBulk(attendance.BulkSheet{
		Block: "A",
		Day:   "2026-08-28",
		Marks: []attendance.Mark{
			{StudentID: stu.ID, Status: attendance.StatusPresent},
			{StudentID: "ghost", Status: attendance.StatusPresent},
		},
	}, "wardena")
	if errors.Cause(err) != attendance.ErrUnknownRosterEntry {
		t.Fatalf("MarkBulk() error = %v, wantErr %v", err, attendance.ErrUnknownRosterEntry)
	}

	// nothing may be written on a strict failure
	records, err := env.svc.Query(&attendance.QueryFilter{Block: "A", Day: "2026-08-28"}, nil)
	if err != nil {
		t.Fatalf("Query() failed, %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Query() = %v records; want 0", len(records))
	}
}

func Test_Service_ExportDay(t *testing.T) {
	env := setup(t, false)
	stu := admitStudent(t, env.stuSvc, "John Doe", "A")

	if _, err := env.svc.MarkBulk(attendance.BulkSheet{
		Block: "A",
		Day:   "2026-08-28",
		Marks: []attendance.Mark{{StudentID: stu.ID, Status: attendance.StatusPresent}},
	}, "wardena"); err != nil {
		t.Fatalf("MarkBulk() failed, %v", err)
	}

	data, err := env.svc.ExportDay("A", "2026-08-28")
	if err != nil {
		t.Fatalf("ExportDay() failed, %v", err)
	}
	// xlsx workbooks are zip archives
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Error("ExportDay() output is not a zip archive")
	}
}

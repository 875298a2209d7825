package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/makazi/core/attendance"
	"github.com/trezcool/makazi/core/user"
)

func Test_attendanceApi_markBulk(t *testing.T) {
	env := setup(t)

	wardenA := createUser(t, env.userRepo, "Warden A", "wardena", "warden.a@test.cd", "", user.WardenRoles, "A", true)
	token := getToken(t, wardenA)

	stu1 := admitStudent(t, env.studentSvc, "John Doe", "A", "")
	stu2 := admitStudent(t, env.studentSvc, "Jane Doe", "A", "")
	strayB := admitStudent(t, env.studentSvc, "Stray", "B", "")

	t.Run("wardens cannot mark another block", func(t *testing.T) {
		body := []byte(`{"block": "B", "day": "2026-08-28", "marks": []}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/bulk", token, body)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("markBulk() code = %v; wantCode %v", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("marks a full sheet, skipping unresolved entries", func(t *testing.T) {
		sheet := attendance.BulkSheet{
			Block: "A",
			Day:   "2026-08-28",
			Marks: []attendance.Mark{
				{StudentID: stu1.ID, Status: attendance.StatusPresent},
				{StudentCode: stu2.Code, Status: attendance.StatusAbsent},
				{StudentID: strayB.ID, Status: attendance.StatusPresent}, // wrong block
				{StudentID: "ghost", Status: attendance.StatusPresent},
				{StudentID: stu1.ID, Status: attendance.StatusAbsent}, // duplicate
			},
		}
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/bulk", token, marshallObj(t, sheet))
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("markBulk() code = %v; body %s", rec.Code, rec.Body.String())
		}

		var res attendance.BulkResult
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("markBulk() unmarshal failed: %v", err)
		}
		if res.Marked != 2 {
			t.Errorf("markBulk() marked = %v; want 2", res.Marked)
		}
		if len(res.Skipped) != 3 {
			t.Errorf("markBulk() skipped = %v; want 3", len(res.Skipped))
		}
	})

	t.Run("resubmission replaces the day", func(t *testing.T) {
		sheet := attendance.BulkSheet{
			Block: "A",
			Day:   "2026-08-28",
			Marks: []attendance.Mark{{StudentID: stu1.ID, Status: attendance.StatusAbsent}},
		}
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/bulk", token, marshallObj(t, sheet))
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("markBulk() code = %v; body %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/attendance?block=A&day=2026-08-28", token)
		env.server.ServeHTTP(rec, req)
		var records []attendance.Record
		if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
			t.Fatalf("query() unmarshal failed: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("query() records = %v; want 1", len(records))
		}
		if records[0].Status != attendance.StatusAbsent || records[0].MarkedBy != "wardena" {
			t.Errorf("query() record = %+v", records[0])
		}
	})

	t.Run("empty sheet clears the day", func(t *testing.T) {
		body := []byte(`{"block": "A", "day": "2026-08-28", "marks": []}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/bulk", token, body)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("markBulk() code = %v; body %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/attendance?block=A&day=2026-08-28", token)
		env.server.ServeHTTP(rec, req)
		var records []attendance.Record
		if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
			t.Fatalf("query() unmarshal failed: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("query() records = %v; want 0", len(records))
		}
	})
}

func Test_attendanceApi_exportDay(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.userRepo, "Admin", "admin", "admin@test.cd", "", user.AdminRoles, "", true)
	token := getToken(t, admin)

	stu := admitStudent(t, env.studentSvc, "John Doe", "A", "")
	sheet := attendance.BulkSheet{
		Block: "A",
		Day:   "2026-08-28",
		Marks: []attendance.Mark{{StudentID: stu.ID, Status: attendance.StatusPresent}},
	}
	req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/bulk", token, marshallObj(t, sheet))
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("markBulk() code = %v; body %s", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/attendance/export?block=A&day=2026-08-28", token)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("exportDay() code = %v; body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("exportDay() content-type = %v; want %v", ct, xlsxContentType)
	}
	// xlsx workbooks are zip archives
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("exportDay() body is not a zip archive")
	}
}

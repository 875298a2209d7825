package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/makazi/core/fee"
	"github.com/trezcool/makazi/core/user"
)

func Test_feeApi_payments(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.userRepo, "Admin", "admin", "admin@test.cd", "", user.AdminRoles, "", true)
	token := getToken(t, admin)
	stu := admitStudent(t, env.studentSvc, "John Doe", "A", "")

	var f fee.Fee
	t.Run("create", func(t *testing.T) {
		body := []byte(`{"student_id": "` + stu.ID + `", "description": "hostel fee", "total_amount": 1000, "due_date": "2026-09-30"}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/fees", token, body)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create() code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &f); err != nil {
			t.Fatalf("create() unmarshal failed: %v", err)
		}
		if f.Status != fee.StatusPending {
			t.Errorf("create() status = %v; want %v", f.Status, fee.StatusPending)
		}
	})

	t.Run("unknown student is a field error", func(t *testing.T) {
		body := []byte(`{"student_id": "nope", "total_amount": 1000, "due_date": "2026-09-30"}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/fees", token, body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"student_id": "student not found"}`),
		}, rec)
	})

	pay := func(t *testing.T, amount string) (*json.Decoder, int, string) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/fees/"+f.ID+"/payments", token, []byte(`{"amount": `+amount+`}`))
		env.server.ServeHTTP(rec, req)
		return json.NewDecoder(rec.Body), rec.Code, rec.Body.String()
	}

	t.Run("partial payment stays pending", func(t *testing.T) {
		dec, code, body := pay(t, "600")
		if code != http.StatusOK {
			t.Fatalf("pay() code = %v; body %s", code, body)
		}
		var got fee.Fee
		if err := dec.Decode(&got); err != nil {
			t.Fatalf("pay() decode failed: %v", err)
		}
		if got.PaidAmount != 600 || got.Status != fee.StatusPending {
			t.Errorf("pay() = %v/%v; want 600/pending", got.PaidAmount, got.Status)
		}
	})

	t.Run("overpayment is rejected", func(t *testing.T) {
		_, code, body := pay(t, "600")
		if code != http.StatusBadRequest {
			t.Errorf("pay() code = %v; want %v; body %s", code, http.StatusBadRequest, body)
		}
	})

	t.Run("settling payment flips to paid", func(t *testing.T) {
		dec, code, body := pay(t, "400")
		if code != http.StatusOK {
			t.Fatalf("pay() code = %v; body %s", code, body)
		}
		var got fee.Fee
		if err := dec.Decode(&got); err != nil {
			t.Fatalf("pay() decode failed: %v", err)
		}
		if got.PaidAmount != 1000 || got.Status != fee.StatusPaid {
			t.Errorf("pay() = %v/%v; want 1000/paid", got.PaidAmount, got.Status)
		}
	})

	t.Run("non-positive amount is rejected", func(t *testing.T) {
		_, code, _ := pay(t, "-5")
		if code != http.StatusBadRequest {
			t.Errorf("pay() code = %v; want %v", code, http.StatusBadRequest)
		}
	})
}

func Test_feeApi_update(t *testing.T) {
	env := setup(t)

	admin := createUser(t, env.userRepo, "Admin", "admin", "admin@test.cd", "", user.AdminRoles, "", true)
	token := getToken(t, admin)
	stu := admitStudent(t, env.studentSvc, "John Doe", "A", "")

	f, err := env.feeSvc.Create(fee.NewFee{StudentID: stu.ID, TotalAmount: 1000, DueDate: "2026-09-30"})
	if err != nil {
		t.Fatalf("creating fee failed: %v", err)
	}
	if _, err = env.feeSvc.RecordPayment(f.ID, fee.Payment{Amount: 800}); err != nil {
		t.Fatalf("recording payment failed: %v", err)
	}

	t.Run("dropping the total below paid forces paid", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/fees/"+f.ID, token, []byte(`{"total_amount": 700}`))
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("update() code = %v; body %s", rec.Code, rec.Body.String())
		}
		var got fee.Fee
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("update() unmarshal failed: %v", err)
		}
		if got.Status != fee.StatusPaid {
			t.Errorf("update() status = %v; want %v", got.Status, fee.StatusPaid)
		}
	})
}

package fee_test

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core/fee"
	dummydb "github.com/trezcool/makazi/storage/database/dummy"
)

func setup(t *testing.T) fee.ServiceInterface {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("opening dummy db failed: %v", err)
	}
	return fee.NewService(dummydb.NewFeeRepository(db), nil)
}

func createFee(t *testing.T, svc fee.ServiceInterface, total int64, due string) fee.Fee {
	t.Helper()
	f, err := svc.Create(fee.NewFee{StudentID: "stu", TotalAmount: total, DueDate: due})
	if err != nil {
		t.Fatalf("creating fee failed: %v", err)
	}
	return f
}

func Test_Service_RecordPayment(t *testing.T) {
	svc := setup(t)
	f := createFee(t, svc, 1000, "2030-01-31")

	t.Run("partial payments accumulate", func(t *testing.T) {
		got, err := svc.RecordPayment(f.ID, fee.Payment{Amount: 300})
		if err != nil {
			t.Fatalf("RecordPayment() failed, %v", err)
		}
		if got.PaidAmount != 300 || got.Status != fee.StatusPending {
			t.Errorf("RecordPayment() = %v/%v; want 300/pending", got.PaidAmount, got.Status)
		}
	})

	t.Run("overpayment leaves the ledger untouched", func(t *testing.T) {
		if _, err := svc.RecordPayment(f.ID, fee.Payment{Amount: 800}); errors.Cause(err) != fee.ErrInvalidAmount {
			t.Errorf("RecordPayment() error = %v, wantErr %v", err, fee.ErrInvalidAmount)
		}
		got, _ := svc.GetByID(f.ID)
		if got.PaidAmount != 300 {
			t.Errorf("PaidAmount = %v; want 300", got.PaidAmount)
		}
	})

	t.Run("non-positive amounts are rejected", func(t *testing.T) {
		if _, err := svc.RecordPayment(f.ID, fee.Payment{Amount: 0}); errors.Cause(err) != fee.ErrInvalidAmount {
			t.Errorf("RecordPayment() error = %v, wantErr %v", err, fee.ErrInvalidAmount)
		}
	})

	t.Run("settling flips to paid", func(t *testing.T) {
		got, err := svc.RecordPayment(f.ID, fee.Payment{Amount: 700})
		if err != nil {
			t.Fatalf("RecordPayment() failed, %v", err)
		}
		if got.PaidAmount != 1000 || got.Status != fee.StatusPaid {
			t.Errorf("RecordPayment() = %v/%v; want 1000/paid", got.PaidAmount, got.Status)
		}
	})
}

func Test_Service_SweepOverdue(t *testing.T) {
	svc := setup(t)

	lapsed := createFee(t, svc, 1000, "2020-01-31")
	settled := createFee(t, svc, 500, "2020-01-31")
	if _, err := svc.RecordPayment(settled.ID, fee.Payment{Amount: 500}); err != nil {
		t.Fatalf("RecordPayment() failed, %v", err)
	}
	upcoming := createFee(t, svc, 1000, "2030-01-31")

	marked, err := svc.SweepOverdue()
	if err != nil {
		t.Fatalf("SweepOverdue() failed, %v", err)
	}
	if marked != 1 {
		t.Errorf("SweepOverdue() = %v; want 1", marked)
	}

	wantStatuses := map[string]string{
		lapsed.ID:   fee.StatusOverdue,
		settled.ID:  fee.StatusPaid,
		upcoming.ID: fee.StatusPending,
	}
	for id, want := range wantStatuses {
		got, err := svc.GetByID(id)
		if err != nil {
			t.Fatalf("GetByID() failed, %v", err)
		}
		if got.Status != want {
			t.Errorf("Status = %v; want %v", got.Status, want)
		}
	}

	t.Run("sweeps are repeatable", func(t *testing.T) {
		marked, err := svc.SweepOverdue()
		if err != nil {
			t.Fatalf("SweepOverdue() failed, %v", err)
		}
		if marked != 0 {
			t.Errorf("SweepOverdue() = %v; want 0", marked)
		}
	})
}

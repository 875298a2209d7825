package fee

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/student"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("fee not found")
	// ErrInvalidAmount rejects non-positive payments and payments that would
	// push the paid amount past the total.
	ErrInvalidAmount = errors.New("invalid payment amount")
)

type (
	Repository interface {
		CreateFee(ctx context.Context, f Fee) (Fee, error)
		GetFeeByID(ctx context.Context, id string) (Fee, error)
		QueryFees(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Fee, error)
		// ApplyPayment adds amount to the fee's paid amount and recomputes the
		// status in one conditional step; ErrInvalidAmount when the new paid
		// amount would exceed the total.
		ApplyPayment(ctx context.Context, id string, amount int64) (Fee, error)
		UpdateFee(ctx context.Context, f Fee) (Fee, error)
		DeleteFee(ctx context.Context, id string) error
		// MarkOverdue flips pending fees whose due date has passed to overdue
		// and reports how many were touched.
		MarkOverdue(ctx context.Context, asOf time.Time) (int, error)
	}

	// StudentDirectory is the slice of the student service the fee ledger
	// needs to verify that a fee's student exists.
	StudentDirectory interface {
		GetByID(id string) (student.Student, error)
	}

	ServiceInterface interface {
		Create(nf NewFee) (Fee, error)
		GetByID(id string) (Fee, error)
		Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Fee, error)
		RecordPayment(id string, p Payment) (Fee, error)
		Update(id string, uf UpdateFee) (Fee, error)
		Delete(id string) error
		SweepOverdue() (int, error)
	}

	Service struct {
		repo     Repository
		students StudentDirectory
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, students StudentDirectory) *Service {
	return &Service{repo: repo, students: students}
}

func (svc *Service) Create(nf NewFee) (Fee, error) {
	if svc.students != nil {
		if _, err := svc.students.GetByID(nf.StudentID); err != nil {
			if errors.Cause(err) == student.ErrNotFound {
				return Fee{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
			}
			return Fee{}, errors.Wrap(err, "finding student")
		}
	}

	due, err := core.ParseDay(nf.DueDate)
	if err != nil {
		return Fee{}, core.NewValidationError(err, core.FieldError{Field: "due_date", Error: "invalid date"})
	}

	now := nowFunc().UTC()
	f := Fee{
		StudentID:   nf.StudentID,
		Description: nf.Description,
		TotalAmount: nf.TotalAmount,
		PaidAmount:  0,
		DueDate:     due,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateFee(context.Background(), f)
}

func (svc *Service) GetByID(id string) (Fee, error) {
	return svc.repo.GetFeeByID(context.Background(), id)
}

func (svc *Service) Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Fee, error) {
	return svc.repo.QueryFees(context.Background(), filter, ordering)
}

// RecordPayment adds a positive amount to the fee. The paid amount only ever
// increases, is capped at the total, and the status flips to paid exactly
// when paid >= total.
func (svc *Service) RecordPayment(id string, p Payment) (Fee, error) {
	if p.Amount <= 0 {
		return Fee{}, ErrInvalidAmount
	}
	return svc.repo.ApplyPayment(context.Background(), id, p.Amount)
}

func (svc *Service) Update(id string, uf UpdateFee) (Fee, error) {
	ctx := context.Background()

	f, err := svc.repo.GetFeeByID(ctx, id)
	if err != nil {
		return Fee{}, err
	}

	if uf.Description != nil {
		f.Description = core.CleanString(*uf.Description)
	}
	if uf.TotalAmount != nil {
		f.TotalAmount = *uf.TotalAmount
	}
	if uf.DueDate != nil {
		due, err := core.ParseDay(*uf.DueDate)
		if err != nil {
			return Fee{}, core.NewValidationError(err, core.FieldError{Field: "due_date", Error: "invalid date"})
		}
		f.DueDate = due
	}
	if uf.Status != nil {
		f.Status = *uf.Status
	}
	// amount consistency wins over a caller-supplied status
	if f.PaidAmount >= f.TotalAmount {
		f.Status = StatusPaid
	}

	f.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateFee(ctx, f)
}

func (svc *Service) Delete(id string) error {
	return svc.repo.DeleteFee(context.Background(), id)
}

// SweepOverdue marks pending fees past their due date as overdue. Payment
// recording and overdue detection stay separate concerns on purpose.
func (svc *Service) SweepOverdue() (int, error) {
	return svc.repo.MarkOverdue(context.Background(), core.Day(nowFunc()))
}

package fee

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/makazi/core"
)

// Statuses. `paid` is derived from the amounts; `overdue` is assigned by the
// sweep when a pending fee passes its due date.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusOverdue = "overdue"
)

// Fee is one ledger entry for a student. Amounts are in the smallest currency
// unit.
type Fee struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	Description string    `json:"description"`
	TotalAmount int64     `json:"total_amount"`
	PaidAmount  int64     `json:"paid_amount"`
	DueDate     time.Time `json:"due_date"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (f Fee) Outstanding() int64 {
	if out := f.TotalAmount - f.PaidAmount; out > 0 {
		return out
	}
	return 0
}

// NewFee contains information needed to create a new Fee.
type NewFee struct {
	StudentID   string `json:"student_id" validate:"required"`
	Description string `json:"description"`
	TotalAmount int64  `json:"total_amount" validate:"required,gte=0"`
	DueDate     string `json:"due_date" validate:"required,datetime=2006-01-02"`
}

func (nf *NewFee) Validate(validate *validator.Validate) error {
	nf.StudentID = core.CleanString(nf.StudentID)
	nf.Description = core.CleanString(nf.Description)
	return validate.Struct(nf)
}

// Payment records an amount against a fee.
type Payment struct {
	Amount int64 `json:"amount" validate:"required"`
}

func (p *Payment) Validate(validate *validator.Validate) error {
	return validate.Struct(p)
}

// UpdateFee defines what may be modified on an existing Fee. When the total
// drops to or below what has already been paid, the status is forced to paid
// regardless of any status supplied alongside.
type UpdateFee struct {
	Description *string `json:"description"`
	TotalAmount *int64  `json:"total_amount" validate:"omitempty,gte=0"`
	DueDate     *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Status      *string `json:"status" validate:"omitempty,oneof=pending paid overdue"`
}

func (uf *UpdateFee) Validate(validate *validator.Validate) error {
	return validate.Struct(uf)
}

type QueryFilter struct {
	StudentID string `query:"student_id"`
	Status    string `query:"status"`
	DueFrom   string `query:"due_from"`
	DueTo     string `query:"due_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.Status == "" && qf.DueFrom == "" && qf.DueTo == ""
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

package leave

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/makazi/core"
)

// Statuses. pending is the only non-terminal state; approved and rejected
// requests can never change again.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Leave struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Block     string    `json:"block"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Reason    string    `json:"reason"`
	Status    string    `json:"status"`
	DecidedBy string    `json:"decided_by,omitempty"`
	DecidedAt time.Time `json:"decided_at,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (l Leave) IsPending() bool { return l.Status == StatusPending }

// NewLeave contains information needed to file a leave request.
type NewLeave struct {
	StudentID string `json:"student_id" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason    string `json:"reason" validate:"required"`
}

func (nl *NewLeave) Validate(validate *validator.Validate) error {
	nl.StudentID = core.CleanString(nl.StudentID)
	nl.Reason = core.CleanString(nl.Reason)
	return validate.Struct(nl)
}

// Decision settles a pending request.
type Decision struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

func (d *Decision) Validate(validate *validator.Validate) error {
	d.Status = core.CleanString(d.Status, true /* lower */)
	return validate.Struct(d)
}

type QueryFilter struct {
	StudentID string `query:"student_id"`
	Block     string `query:"block"`
	Status    string `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.Block == "" && qf.Status == ""
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

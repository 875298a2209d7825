package visitor

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/makazi/core"
)

// Visit is one visitor's entry in the gate log. A visit without a checkout
// time is still on the premises.
type Visit struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"student_id"`
	Name         string    `json:"name"`
	Relation     string    `json:"relation,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	CheckedInAt  time.Time `json:"checked_in_at"`
	CheckedOutAt time.Time `json:"checked_out_at,omitempty"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

func (v Visit) IsOpen() bool { return v.CheckedOutAt.IsZero() }

// NewVisit contains information needed to log a visitor in.
type NewVisit struct {
	StudentID string `json:"student_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Relation  string `json:"relation"`
	Phone     string `json:"phone"`
}

func (nv *NewVisit) Validate(validate *validator.Validate) error {
	nv.StudentID = core.CleanString(nv.StudentID)
	nv.Name = core.CleanString(nv.Name)
	nv.Relation = core.CleanString(nv.Relation, true /* lower */)
	nv.Phone = core.CleanString(nv.Phone)
	return validate.Struct(nv)
}

type QueryFilter struct {
	StudentID string `query:"student_id"`
	Open      *bool  `query:"open"`
	Day       string `query:"day"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.Open == nil && qf.Day == ""
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.Day = core.CleanString(qf.Day)
}

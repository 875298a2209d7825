package student

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/makazi/core"
)

// Lifecycle statuses. active -> removed is terminal; re-admission creates a
// new student record.
const (
	StatusActive  = "active"
	StatusRemoved = "removed"
)

type Student struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"` // block-scoped sequential, never reused
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	GuardianName  string    `json:"guardian_name"`
	GuardianPhone string    `json:"guardian_phone"`
	Block         string    `json:"block"`
	Status        string    `json:"status"`
	RoomID        string    `json:"room_id,omitempty"`
	RoomNumber    string    `json:"room_number,omitempty"`
	BedNumber     int       `json:"bed_number,omitempty"` // 1..capacity; 0 when unassigned
	AdmissionDate time.Time `json:"admission_date"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

func (s Student) IsActive() bool { return s.Status == StatusActive }
func (s Student) HasRoom() bool  { return s.RoomID != "" }

// NewStudent contains information needed to admit a new Student.
type NewStudent struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"omitempty,email"`
	Phone         string `json:"phone"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
	Block         string `json:"block" validate:"required,block"`
	AdmissionDate string `json:"admission_date" validate:"omitempty,datetime=2006-01-02"`
	RoomID        string `json:"room_id"`
	BedNumber     int    `json:"bed_number" validate:"omitempty,gte=1"` // preference, best effort
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Block = strings.ToUpper(core.CleanString(ns.Block))
	ns.RoomID = core.CleanString(ns.RoomID)
	return validate.Struct(ns)
}

// UpdateStudent defines the profile fields that may be modified on an
// existing Student. Room changes go through Service.TransferRoom so counter
// bookkeeping stays explicit.
type UpdateStudent struct {
	Name          string `json:"name"`
	Email         string `json:"email" validate:"omitempty,email"`
	Phone         string `json:"phone"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
}

func (us *UpdateStudent) Validate(origStu Student, validate *validator.Validate) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = origStu.Name
	}
	if email := core.CleanString(us.Email, true /* lower */); email != "" {
		us.Email = email
	} else {
		us.Email = origStu.Email
	}
	return validate.Struct(us)
}

// TransferRequest moves a student to another room.
type TransferRequest struct {
	RoomID    string `json:"room_id" validate:"required"`
	BedNumber int    `json:"bed_number" validate:"omitempty,gte=1"` // preference, best effort
}

func (tr *TransferRequest) Validate(validate *validator.Validate) error {
	tr.RoomID = core.CleanString(tr.RoomID)
	return validate.Struct(tr)
}

type QueryFilter struct {
	Search string `query:"search"` // matches name, code or email
	Block  string `query:"block"`
	Status string `query:"status"`
	RoomID string `query:"room_id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Block == "" && qf.Status == "" && qf.RoomID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Block = strings.ToUpper(core.CleanString(qf.Block))
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

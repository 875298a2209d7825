package complaint

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/makazi/core"
)

// Statuses. open -> in_progress -> resolved/dismissed; resolved and dismissed
// are terminal. open may jump straight to a terminal state.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusDismissed  = "dismissed"
)

type Complaint struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	Block       string    `json:"block"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	ResolvedBy  string    `json:"resolved_by,omitempty"`
	Resolution  string    `json:"resolution,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (c Complaint) IsTerminal() bool {
	return c.Status == StatusResolved || c.Status == StatusDismissed
}

// NewComplaint contains information needed to file a complaint.
type NewComplaint struct {
	StudentID   string `json:"student_id" validate:"required"`
	Category    string `json:"category"`
	Description string `json:"description" validate:"required"`
}

func (nc *NewComplaint) Validate(validate *validator.Validate) error {
	nc.StudentID = core.CleanString(nc.StudentID)
	nc.Category = core.CleanString(nc.Category, true /* lower */)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

// Progress moves a complaint along its lifecycle.
type Progress struct {
	Status     string `json:"status" validate:"required,oneof=in_progress resolved dismissed"`
	Resolution string `json:"resolution"`
}

func (p *Progress) Validate(validate *validator.Validate) error {
	p.Status = core.CleanString(p.Status, true /* lower */)
	p.Resolution = core.CleanString(p.Resolution)
	return validate.Struct(p)
}

type QueryFilter struct {
	StudentID string `query:"student_id"`
	Block     string `query:"block"`
	Status    string `query:"status"`
	Category  string `query:"category"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.Block == "" && qf.Status == "" && qf.Category == ""
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
}

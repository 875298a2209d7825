package attendance

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/makazi/core"
)

const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// Record is one student's attendance for one day. Records are keyed
// (student, day); re-submitting a day replaces them wholesale.
type Record struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	StudentCode string    `json:"student_code"`
	Block       string    `json:"block"`
	RoomNumber  string    `json:"room_number,omitempty"`
	Day         time.Time `json:"day"`
	Status      string    `json:"status"`
	MarkedBy    string    `json:"marked_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// Mark is one roster entry of a bulk sheet. Students are identified by ID or
// by code; code wins for hand-filled sheets.
type Mark struct {
	StudentID   string `json:"student_id"`
	StudentCode string `json:"student_code"`
	Status      string `json:"status" validate:"required,oneof=present absent"`
}

// BulkSheet is a full day's attendance for one block.
type BulkSheet struct {
	Block string `json:"block" validate:"required,block"`
	Day   string `json:"day" validate:"required,datetime=2006-01-02"`
	Marks []Mark `json:"marks" validate:"dive"`
}

func (bs *BulkSheet) Validate(validate *validator.Validate) error {
	bs.Block = strings.ToUpper(core.CleanString(bs.Block))
	for i := range bs.Marks {
		bs.Marks[i].StudentID = core.CleanString(bs.Marks[i].StudentID)
		bs.Marks[i].StudentCode = core.CleanString(bs.Marks[i].StudentCode)
		bs.Marks[i].Status = core.CleanString(bs.Marks[i].Status, true /* lower */)
	}
	return validate.Struct(bs)
}

// SkippedMark reports a roster entry that could not be recorded.
type SkippedMark struct {
	StudentID   string `json:"student_id,omitempty"`
	StudentCode string `json:"student_code,omitempty"`
	Reason      string `json:"reason"`
}

// BulkResult summarizes a bulk submission.
type BulkResult struct {
	Block   string        `json:"block"`
	Day     time.Time     `json:"day"`
	Marked  int           `json:"marked"`
	Skipped []SkippedMark `json:"skipped,omitempty"`
}

type QueryFilter struct {
	Block     string `query:"block"`
	Day       string `query:"day"`
	StudentID string `query:"student_id"`
	Status    string `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Block == "" && qf.Day == "" && qf.StudentID == "" && qf.Status == ""
}

func (qf *QueryFilter) Clean() {
	qf.Block = strings.ToUpper(core.CleanString(qf.Block))
	qf.Day = core.CleanString(qf.Day)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

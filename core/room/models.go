package room

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/makazi/core"
)

type Room struct {
	ID        string    `json:"id"`
	Block     string    `json:"block"`
	Number    string    `json:"number"`
	Floor     int       `json:"floor"`
	Capacity  int       `json:"capacity"`
	Occupied  int       `json:"occupied"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (r Room) FreeBeds() int { return r.Capacity - r.Occupied }
func (r Room) IsFull() bool  { return r.Occupied >= r.Capacity }

// NewRoom contains information needed to create a new Room.
type NewRoom struct {
	Block    string `json:"block" validate:"required,block"`
	Number   string `json:"number" validate:"required"`
	Floor    int    `json:"floor" validate:"gte=0"`
	Capacity int    `json:"capacity" validate:"required,gte=1"`
}

func (nr *NewRoom) Validate(validate *validator.Validate, svc ServiceInterface) error {
	nr.Block = strings.ToUpper(core.CleanString(nr.Block))
	nr.Number = core.CleanString(nr.Number)

	if err := validate.Struct(nr); err != nil {
		return err
	}
	return svc.CheckUniqueness(nr.Block, nr.Number)
}

// SetOccupied is the administrative occupancy override payload.
type SetOccupied struct {
	Occupied *int `json:"occupied" validate:"required,gte=0"`
}

func (so *SetOccupied) Validate(validate *validator.Validate) error {
	return validate.Struct(so)
}

type QueryFilter struct {
	Search   string `query:"search"` // matches room number
	Block    string `query:"block"`
	Floor    *int   `query:"floor"`
	HasSpace *bool  `query:"has_space"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Block == "" && qf.Floor == nil && qf.HasSpace == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Block = strings.ToUpper(core.CleanString(qf.Block))
}

package mess

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/makazi/core"
)

// Meals
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
)

// MenuEntry is what a block's mess serves for one (weekday, meal) slot.
// Weekday follows time.Weekday (0 = Sunday).
type MenuEntry struct {
	ID        string    `json:"id"`
	Block     string    `json:"block"`
	Weekday   int       `json:"weekday"`
	Meal      string    `json:"meal"`
	Items     string    `json:"items"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// SetMenuEntry creates or overwrites the menu for one slot.
type SetMenuEntry struct {
	Block   string `json:"block" validate:"required,block"`
	Weekday int    `json:"weekday" validate:"gte=0,lte=6"`
	Meal    string `json:"meal" validate:"required,oneof=breakfast lunch dinner"`
	Items   string `json:"items" validate:"required"`
}

func (se *SetMenuEntry) Validate(validate *validator.Validate) error {
	se.Block = strings.ToUpper(core.CleanString(se.Block))
	se.Meal = core.CleanString(se.Meal, true /* lower */)
	se.Items = core.CleanString(se.Items)
	return validate.Struct(se)
}

type QueryFilter struct {
	Block   string `query:"block"`
	Weekday *int   `query:"weekday"`
	Meal    string `query:"meal"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Block == "" && qf.Weekday == nil && qf.Meal == ""
}

func (qf *QueryFilter) Clean() {
	qf.Block = strings.ToUpper(core.CleanString(qf.Block))
	qf.Meal = core.CleanString(qf.Meal, true /* lower */)
}

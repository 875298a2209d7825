package core

import (
	"strings"
	"time"
)

// DateFormat is the canonical day format used for attendance and due dates.
const DateFormat = "2006-01-02"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a DateFormat string into a midnight-UTC time.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateFormat, s, time.UTC)
}

// DBOrdering is a single ORDER BY term. The API layer builds these from the
// `ordering` query parameter and the repositories whitelist the field against
// their own column maps before rendering it.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

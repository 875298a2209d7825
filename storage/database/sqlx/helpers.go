package sqlxrepos

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/makazi/core"
)

// orderBy renders an ORDER BY clause from the requested ordering, keeping only
// fields present in the allowed map (query field -> column). Falls back to def.
func orderBy(ordering []core.DBOrdering, allowed map[string]string, def string) string {
	var cols []string
	for _, ord := range ordering {
		col, ok := allowed[ord.Field]
		if !ok {
			continue
		}
		cols = append(cols, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(cols) == 0 {
		return " ORDER BY " + def
	}
	return " ORDER BY " + strings.Join(cols, ", ")
}

func nullString(s string) null.String {
	if s == "" {
		return null.String{}
	}
	return null.StringFrom(s)
}

func nullInt(i int) null.Int {
	if i == 0 {
		return null.Int{}
	}
	return null.IntFrom(i)
}

func isNoRows(err error) bool {
	return err == sql.ErrNoRows
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

package core

import (
	"testing"
	"time"
)

func TestDBOrdering_String(t *testing.T) {
	tests := []struct {
		name string
		ord  DBOrdering
		want string
	}{
		{name: "ascending", ord: DBOrdering{Field: "created_at", Ascending: true}, want: "created_at ASC"},
		{name: "descending", ord: DBOrdering{Field: "code"}, want: "code DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ord.String(); got != tt.want {
				t.Errorf("String() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	in := time.Date(2021, 5, 14, 1, 30, 0, 0, loc) // 2021-05-13 22:30 UTC
	want := time.Date(2021, 5, 13, 0, 0, 0, 0, time.UTC)
	if got := Day(in); !got.Equal(want) {
		t.Errorf("Day() = %v; want %v", got, want)
	}

	parsed, err := ParseDay("2021-05-13")
	if err != nil {
		t.Fatalf("ParseDay() failed: %v", err)
	}
	if !parsed.Equal(want) {
		t.Errorf("ParseDay() = %v; want %v", parsed, want)
	}
}

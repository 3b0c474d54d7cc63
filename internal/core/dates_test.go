package core

import (
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	now := time.Date(2025, 3, 18, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"full date mid-month", "2025-07-15", "2025-07-01"},
		{"full date first", "2025-07-01", "2025-07-01"},
		{"year-month only", "2025-07", "2025-07-01"},
		{"empty falls back to current month", "", "2025-03-01"},
		{"garbage falls back to current month", "not-a-date", "2025-03-01"},
		{"december", "2024-12-31", "2024-12-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMonth(tt.input, now)
			if got.Format(DateFormat) != tt.want {
				t.Errorf("ParseMonth(%q) = %s, want %s", tt.input, got.Format(DateFormat), tt.want)
			}
		})
	}
}

func TestParseMonthEquivalence(t *testing.T) {
	// "2025-07-15", "2025-07-01" and "2025-07" must all resolve to the
	// same month so the same budget is found for each.
	now := time.Now()
	a := ParseMonth("2025-07-15", now)
	b := ParseMonth("2025-07-01", now)
	c := ParseMonth("2025-07", now)

	if !a.Equal(b) || !b.Equal(c) {
		t.Errorf("equivalent inputs resolved differently: %v %v %v", a, b, c)
	}
}

func TestBudgetLabel(t *testing.T) {
	b := Budget{
		Name: "vacation",
		Date: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	if b.Label() != "vacation - 2025-07" {
		t.Errorf("label = %q, want %q", b.Label(), "vacation - 2025-07")
	}
}

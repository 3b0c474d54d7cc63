package core

import "time"

// DateFormat is how dates are stored and exchanged over the API.
const DateFormat = "2006-01-02"

// FirstOfMonth normalizes a date to the first day of its month, the
// canonical budget date.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ParseMonth resolves a client-supplied budget date. It accepts
// "YYYY-MM-DD" or "YYYY-MM"; anything else, including the empty string,
// falls back to the current month. The result is always first-of-month.
func ParseMonth(raw string, now time.Time) time.Time {
	if raw == "" {
		return FirstOfMonth(now)
	}
	for _, layout := range []string{DateFormat, "2006-01"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return FirstOfMonth(parsed)
		}
	}
	return FirstOfMonth(now)
}

// ParseDate parses a strict YYYY-MM-DD date.
func ParseDate(raw string) (time.Time, error) {
	return time.Parse(DateFormat, raw)
}

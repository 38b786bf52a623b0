package schedule

import "time"

// DateLayout is the canonical calendar date format used throughout the planner
const DateLayout = "2006-01-02"

// dateLayouts are the accepted input layouts, tried in order
var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"2006.01.02",
}

// ParseDate parses a date string in any accepted layout, truncated to UTC midnight
func ParseDate(input string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// NormalizeDate validates input and returns it in canonical YYYY-MM-DD form.
// Malformed input reports ok=false; this is a query, not an assertion, so it
// never panics and never returns a partial result.
func NormalizeDate(input string) (string, bool) {
	t, ok := ParseDate(input)
	if !ok {
		return "", false
	}
	return t.Format(DateLayout), true
}

// DaysBetween returns the number of whole calendar days from start to end,
// negative when end precedes start. An unparseable side counts as day zero,
// so callers must treat zero and negative results specially.
func DaysBetween(start, end string) int {
	s, okS := ParseDate(start)
	e, okE := ParseDate(end)
	if !okS || !okE {
		return 0
	}
	return int(e.Sub(s).Hours() / 24)
}

// AddDays returns the canonical date n days after the given date. The input
// must already be canonical; anything else comes back unchanged.
func AddDays(date string, n int) string {
	t, ok := ParseDate(date)
	if !ok {
		return date
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}

// Today returns the canonical date for the given instant in UTC
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}

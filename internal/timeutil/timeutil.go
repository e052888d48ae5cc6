package timeutil

import (
	"fmt"
	"time"
)

// Layout is the wall-clock layout used in chat replies and request lines.
// LayoutSeconds adds seconds for instants that close a range.
const (
	Layout        = "2006-01-02 15:04"
	LayoutSeconds = "2006-01-02 15:04:05"
)

var defaultLocation = time.UTC

// ResolveLocation returns the calendar's location with a UTC fallback. The
// second result reports whether the fallback was used.
func ResolveLocation(timezone string) (*time.Location, bool) {
	if timezone == "" {
		return defaultLocation, true
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return defaultLocation, true
	}
	return loc, false
}

// ParseLocal parses a "yyyy-MM-dd HH:mm" wall-clock value in loc.
func ParseLocal(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("time value is required")
	}
	if loc == nil {
		loc = defaultLocation
	}

	t, err := time.ParseInLocation(Layout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse time: %s", value)
	}
	return t, nil
}

// FormatLocal renders t as "yyyy-MM-dd HH:mm" in loc.
func FormatLocal(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = defaultLocation
	}
	return t.In(loc).Format(Layout)
}

// EndOfDay returns 23:59:59 of t's day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

// EndOfMinute returns the last second of t's minute. Range ends are given
// to the minute and include that whole minute.
func EndOfMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute).Add(59 * time.Second)
}

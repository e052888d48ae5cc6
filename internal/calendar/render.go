package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/omriShneor/telcal/internal/gcal"
	"github.com/omriShneor/telcal/internal/intent"
	"github.com/omriShneor/telcal/internal/timeutil"
)

const (
	eventsFoundHeader = "Events found: \n"
	eventsNotFound    = "Events not found"
)

// Select applies the search type to an ordered result.
func Select(events []gcal.Event, t intent.SearchType) []gcal.Event {
	if len(events) == 0 {
		return nil
	}
	switch t {
	case intent.SearchFirst:
		return events[:1]
	case intent.SearchLast:
		return events[len(events)-1:]
	default:
		return events
	}
}

// wholeHours truncates toward zero.
func wholeHours(d time.Duration) int {
	return int(d / time.Hour)
}

// FormatEvent renders one search line in loc.
func FormatEvent(e gcal.Event, loc *time.Location) string {
	date := e.StartDate
	if !e.AllDay {
		date = timeutil.FormatLocal(e.StartTime, loc)
	}
	return fmt.Sprintf("Date = %s, Duration = %d, Description = %s", date, wholeHours(e.Duration()), e.Summary)
}

// RenderSearch renders the search reply. An empty selection renders the fixed
// not-found text.
func RenderSearch(events []gcal.Event, loc *time.Location) string {
	if len(events) == 0 {
		return eventsNotFound
	}

	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = FormatEvent(e, loc)
	}
	return eventsFoundHeader + strings.Join(lines, "\n")
}

// AnalyticsResult is the count of matching events and their total whole
// hours.
type AnalyticsResult struct {
	Count int
	Hours int
}

func (r AnalyticsResult) String() string {
	return fmt.Sprintf("Amount events: %d.\nAll time (hours): %d", r.Count, r.Hours)
}

// Summarize totals events. Each event contributes its own truncated hours;
// all-day events contribute zero.
func Summarize(events []gcal.Event) AnalyticsResult {
	r := AnalyticsResult{Count: len(events)}
	for _, e := range events {
		r.Hours += wholeHours(e.Duration())
	}
	return r
}

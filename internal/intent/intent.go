package intent

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultDurationMinutes applies when an event line carries no duration.
const DefaultDurationMinutes = 60

// SearchType selects which matching events a search returns.
type SearchType string

const (
	SearchFirst SearchType = "first"
	SearchLast  SearchType = "last"
	SearchAll   SearchType = "all"
)

// ParseSearchType maps first, last and all to their variants. Anything else,
// including the empty string, is SearchAll.
func ParseSearchType(s string) SearchType {
	switch SearchType(strings.ToLower(strings.TrimSpace(s))) {
	case SearchFirst:
		return SearchFirst
	case SearchLast:
		return SearchLast
	default:
		return SearchAll
	}
}

func isSearchTypeLiteral(s string) bool {
	switch SearchType(strings.TrimSpace(s)) {
	case SearchFirst, SearchLast, SearchAll:
		return true
	}
	return false
}

// EventCreation is a validated request to create one event.
type EventCreation struct {
	Date            string // yyyy-MM-dd
	Time            string // HH:mm
	DurationMinutes int
	Description     string
}

// Start returns the event start as a wall-clock time in loc.
func (e EventCreation) Start(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateTimeLayout, e.Date+" "+e.Time, loc)
}

// Line renders the event back in the event creation grammar.
func (e EventCreation) Line() string {
	return fmt.Sprintf("%s %s / Duration=%d / %s", e.Date, e.Time, e.DurationMinutes, e.Description)
}

// Search is a validated request for events in a range. Start and End use
// DateTimeLayout.
type Search struct {
	Start   string
	End     string
	Type    SearchType
	Keyword string
}

// Analytics is a validated request to count events in a range. Start and
// End use DateTimeLayout.
type Analytics struct {
	Start   string
	End     string
	Keyword string
}

// ParseEventCreation validates an event line and extracts its fields. A
// missing duration defaults to DefaultDurationMinutes.
func ParseEventCreation(text string) (EventCreation, bool) {
	text = Normalize(text)
	if !CheckEventCreation(text) {
		return EventCreation{}, false
	}
	return eventFromDetails(ExtractEventDetails(text))
}

// EventFromPending rebuilds an event from a previously validated line.
func EventFromPending(text string) (EventCreation, bool) {
	return eventFromDetails(ExtractEventDetails(text))
}

func eventFromDetails(d EventDetails) (EventCreation, bool) {
	if d.Date == "" || d.Time == "" || d.Remainder == "" {
		return EventCreation{}, false
	}
	if _, err := time.Parse(DateTimeLayout, d.Date+" "+d.Time); err != nil {
		return EventCreation{}, false
	}

	duration := DefaultDurationMinutes
	if d.Duration != "" {
		n, err := strconv.Atoi(d.Duration)
		if err != nil || n <= 0 {
			return EventCreation{}, false
		}
		duration = n
	}

	return EventCreation{
		Date:            d.Date,
		Time:            d.Time,
		DurationMinutes: duration,
		Description:     d.Remainder,
	}, true
}

// ParseSearchText validates a "<date> / <date>[ / <segment>][ / <segment>]"
// line. Dates widen to 00:00 and 23:59. Each optional segment is a search
// type when it is one of first, last or all and the keyword otherwise, so
// both segment orders are accepted.
func ParseSearchText(text string) (Search, bool) {
	text = Normalize(text)
	if !CheckSearch(text) {
		return Search{}, false
	}

	parts := strings.SplitN(text, " / ", 4)
	if !validDate(parts[0]) || !validDate(parts[1]) {
		return Search{}, false
	}

	s := Search{
		Start: parts[0] + " 00:00",
		End:   parts[1] + " 23:59",
		Type:  SearchAll,
	}

	typeSet := false
	for _, seg := range parts[2:] {
		seg = strings.TrimSpace(seg)
		switch {
		case seg == "":
		case !typeSet && isSearchTypeLiteral(seg):
			s.Type = ParseSearchType(seg)
			typeSet = true
		case s.Keyword == "":
			s.Keyword = seg
		default:
			s.Type = ParseSearchType(seg)
			typeSet = true
		}
	}
	return s, true
}

// ParseAnalyticsText validates a "<date> <date>[ <keyword>]" line. Dates
// widen to 00:00 and 23:59.
func ParseAnalyticsText(text string) (Analytics, bool) {
	text = Normalize(text)
	m := analyticsPattern.FindStringSubmatch(text)
	if m == nil || !validDate(m[1]) || !validDate(m[2]) {
		return Analytics{}, false
	}

	return Analytics{
		Start:   m[1] + " 00:00",
		End:     m[2] + " 23:59",
		Keyword: strings.TrimSpace(m[4]),
	}, true
}

// ParseSearchVoice validates a labelled search line produced from a
// transcript.
func ParseSearchVoice(text string) (Search, bool) {
	text = Normalize(text)
	if !CheckVoiceRange(text) {
		return Search{}, false
	}

	d := ExtractSearchDetails(text)
	if !validDateTime(d.Start) || !validDateTime(d.End) {
		return Search{}, false
	}
	return Search{
		Start:   d.Start,
		End:     d.End,
		Type:    ParseSearchType(d.SearchType),
		Keyword: d.Keyword,
	}, true
}

// ParseAnalyticsVoice validates a labelled analytics line produced from a
// transcript.
func ParseAnalyticsVoice(text string) (Analytics, bool) {
	text = Normalize(text)
	if !CheckVoiceRange(text) {
		return Analytics{}, false
	}

	d := ExtractAnalyticDetails(text)
	if !validDateTime(d.Start) || !validDateTime(d.End) {
		return Analytics{}, false
	}
	return Analytics{Start: d.Start, End: d.End, Keyword: d.Keyword}, true
}

// SearchAcknowledgement echoes a search request back to the user.
func SearchAcknowledgement(s Search) string {
	return fmt.Sprintf("Your request: Start date: %s / End date: %s / Search type = %s / Keyword = %s",
		datePart(s.Start), datePart(s.End), s.Type, s.Keyword)
}

// AnalyticsAcknowledgement echoes an analytics request back to the user.
func AnalyticsAcknowledgement(a Analytics) string {
	return fmt.Sprintf("Your request: Start date: %s / End date: %s / Keyword = %s",
		datePart(a.Start), datePart(a.End), a.Keyword)
}

func datePart(dateTime string) string {
	date, _, _ := strings.Cut(dateTime, " ")
	return date
}

func validDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

func validDateTime(s string) bool {
	_, err := time.Parse(DateTimeLayout, s)
	return err == nil
}

package intent

import (
	"regexp"
	"strings"
)

var (
	datePattern     = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	timePattern     = regexp.MustCompile(`\b(\d{2}:\d{2})\b`)
	durationPattern = regexp.MustCompile(`Duration=(\d+)`)

	// An echoed seconds field is accepted and dropped.
	startDatePattern  = regexp.MustCompile(`Start date: (\d{4}-\d{2}-\d{2} \d{2}:\d{2})(?::\d{2})?\b`)
	endDatePattern    = regexp.MustCompile(`End date: (\d{4}-\d{2}-\d{2} \d{2}:\d{2})(?::\d{2})?\b`)
	searchTypePattern = regexp.MustCompile(`Search type = (\w+)`)
	searchTypeLabel   = regexp.MustCompile(`Search type\s*=\s*\w*`)
	keywordLabel      = regexp.MustCompile(`Keyword\s*=\s*`)
)

// EventDetails are the raw fields of an event line. Remainder is the text
// left after removing date, time, duration and slashes; it may still start
// with a keyword.
type EventDetails struct {
	Date      string
	Time      string
	Duration  string
	Remainder string
}

// SearchDetails are the raw fields of a labelled search line.
type SearchDetails struct {
	Start      string
	End        string
	SearchType string
	Keyword    string
}

// AnalyticDetails are the raw fields of a labelled analytics line.
type AnalyticDetails struct {
	Start   string
	End     string
	Keyword string
}

// ExtractEventDetails pulls the first date, time and duration out of text.
// Missing fields are left empty.
func ExtractEventDetails(text string) EventDetails {
	d := EventDetails{
		Date:     firstGroup(datePattern, text),
		Time:     firstGroup(timePattern, text),
		Duration: firstGroup(durationPattern, text),
	}

	rest := datePattern.ReplaceAllString(text, "")
	rest = timePattern.ReplaceAllString(rest, "")
	rest = durationPattern.ReplaceAllString(rest, "")
	d.Remainder = stripSlashes(rest)
	return d
}

// ExtractSearchDetails reads a line of the form
// "Start date: <dt> / End date: <dt> / Search type = <t> / Keyword = <k>".
func ExtractSearchDetails(text string) SearchDetails {
	d := SearchDetails{
		Start:      firstGroup(startDatePattern, text),
		End:        firstGroup(endDatePattern, text),
		SearchType: firstGroup(searchTypePattern, text),
	}

	rest := startDatePattern.ReplaceAllString(text, "")
	rest = endDatePattern.ReplaceAllString(rest, "")
	rest = searchTypeLabel.ReplaceAllString(rest, "")
	rest = keywordLabel.ReplaceAllString(rest, "")
	d.Keyword = stripSlashes(rest)
	return d
}

// ExtractAnalyticDetails reads a line of the form
// "Start date: <dt> / End date: <dt> / Keyword = <k>".
func ExtractAnalyticDetails(text string) AnalyticDetails {
	d := AnalyticDetails{
		Start: firstGroup(startDatePattern, text),
		End:   firstGroup(endDatePattern, text),
	}

	rest := startDatePattern.ReplaceAllString(text, "")
	rest = endDatePattern.ReplaceAllString(rest, "")
	rest = keywordLabel.ReplaceAllString(rest, "")
	d.Keyword = stripSlashes(rest)
	return d
}

func firstGroup(p *regexp.Regexp, text string) string {
	m := p.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

func stripSlashes(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "/", ""))
}

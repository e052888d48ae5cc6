// Package intent defines the one-line text grammars the language model is
// asked to produce, and turns those lines into typed requests. Validation
// is always a full anchored match: a line that does not match is rejected
// whole, never partially parsed.
package intent

import (
	"regexp"
	"strings"
)

const (
	// DateLayout and DateTimeLayout are the layouts used on the wire.
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

var (
	eventCreationPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2} .+$`)

	searchPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}) / (\d{4}-\d{2}-\d{2}) / (first|last|all) / (.+)$`),
		regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}) / (\d{4}-\d{2}-\d{2}) / (first|last|all)$`),
		regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}) / (\d{4}-\d{2}-\d{2}) / (.+)$`),
		regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}) / (\d{4}-\d{2}-\d{2})$`),
	}

	analyticsPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}) (\d{4}-\d{2}-\d{2})( (.+))?$`)
)

// CheckEventCreation reports whether text starts with a date and a time
// followed by at least one more character.
func CheckEventCreation(text string) bool {
	return eventCreationPattern.MatchString(text)
}

// CheckSearch reports whether text is a slash separated search line with
// two dates and up to two optional segments.
func CheckSearch(text string) bool {
	for _, p := range searchPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// CheckAnalytics reports whether text is two space separated dates with an
// optional keyword.
func CheckAnalytics(text string) bool {
	return analyticsPattern.MatchString(text)
}

// CheckVoiceRange reports whether a labelled voice line carries both the
// start and the end instant.
func CheckVoiceRange(text string) bool {
	return startDatePattern.MatchString(text) && endDatePattern.MatchString(text)
}

// Normalize trims whitespace and the quotes models tend to wrap a one-line
// answer in.
func Normalize(completion string) string {
	s := strings.TrimSpace(completion)
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '\'' || first == '"' || first == '`') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}

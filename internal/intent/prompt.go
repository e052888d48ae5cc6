package intent

import (
	"fmt"
	"strings"
	"time"

	"github.com/omriShneor/telcal/internal/timeutil"
)

const (
	promptDateLayout     = "2006.01.02"
	promptExampleLayout  = "January 2"
	searchRangeOpenStart = "01.01.1900"
	searchRangeOpenEnd   = "01.01.2100"
)

// RequestKind is the kind of answer a prompt asks for.
type RequestKind int

const (
	KindCreateEvent RequestKind = iota
	KindSearch
	KindAnalytics
)

func (k RequestKind) String() string {
	switch k {
	case KindCreateEvent:
		return "create_event"
	case KindSearch:
		return "search"
	case KindAnalytics:
		return "analytics"
	}
	return "unknown"
}

// KeywordConfig is the user's keyword preferences as entered. Keywords and
// CompoundKeywords are comma separated.
type KeywordConfig struct {
	Keywords         string
	DefaultKeyword   string
	CompoundKeywords string
}

func (k KeywordConfig) hasKeywords() bool {
	return strings.TrimSpace(k.Keywords) != "" ||
		strings.TrimSpace(k.CompoundKeywords) != "" ||
		strings.TrimSpace(k.DefaultKeyword) != ""
}

// Builder renders prompts. The current date is read on every call so
// relative dates in the user's text resolve against the day of the request.
type Builder struct {
	now func() time.Time
}

// NewBuilder returns a Builder; a nil now uses time.Now.
func NewBuilder(now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{now: now}
}

// Free-form prompts, used for voice transcripts.

// Prompt returns the free-form prompt for kind.
func (b *Builder) Prompt(kind RequestKind, text string, kw KeywordConfig) string {
	switch kind {
	case KindSearch:
		return b.Search(text)
	case KindAnalytics:
		return b.Analytics(text)
	default:
		return b.CreateEvent(text, kw)
	}
}

// CreateEvent asks for "yyyy-MM-dd HH:mm / Duration=mm[ / Keyword]. Description".
func (b *Builder) CreateEvent(text string, kw KeywordConfig) string {
	today := b.now()
	todayStr := today.Format(promptDateLayout)
	nextDayStr := today.AddDate(0, 0, 1).Format(promptDateLayout)
	currentYear := today.Year()
	nextYear := currentYear + 1

	var sb strings.Builder
	sb.WriteString("Analyze the text and find 'date', 'start time', 'duration', ")
	if kw.hasKeywords() {
		sb.WriteString("'keyword', ")
	}
	sb.WriteString("'description'. ")
	sb.WriteString("In the source text, the date can be specified in free form. ")
	sb.WriteString("For example: tomorrow, tomorrow at eight, the day after tomorrow, some day this week and the next, etc. ")
	fmt.Fprintf(&sb, "The date specified in this way is counted from the current day equal to %s and time from the source text. ", todayStr)
	fmt.Fprintf(&sb, "If the year is not specified in the source text and the date you specify may be greater than %s and less than 01.01.%d, then the year %d is set. Otherwise, the year %d is set. ",
		todayStr, nextYear, currentYear, nextYear)

	past := today.AddDate(0, -1, 0)
	fmt.Fprintf(&sb, "For example, '%s' without a year means %04d-%02d-%02d. ",
		past.Format(promptExampleLayout), InferYear(today, past.Month(), past.Day()), past.Month(), past.Day())

	sb.WriteString("The month can be specified as a number or a word. ")
	fmt.Fprintf(&sb, "If the date is not explicitly set in the past, then the date you set must be greater than %s. ", todayStr)
	fmt.Fprintf(&sb, "If the date is missing or could not be determined, then it is necessary to set the date equal to %s and time from the source text. ", nextDayStr)
	sb.WriteString("In the source text, the time can be specified in a free form. ")
	sb.WriteString("For example: at eight, at ten in the evening, at nineteen zero zero, 10, etc. ")
	sb.WriteString("If you could not determine the time in the source text, then set the time to 09:00. ")
	sb.WriteString("Duration is the number of minutes that indicates how long the event will last. ")
	sb.WriteString("If a start and end time are specified, the duration is equal to the difference between them. ")
	fmt.Fprintf(&sb, "If the duration is missing, it should be equal to %d minutes. ", DefaultDurationMinutes)

	writeKeywordRules(&sb, kw)

	sb.WriteString("'Description' is the remaining text without date and duration. ")
	if kw.hasKeywords() {
		sb.WriteString("If there is a keyword in the source text, the answer you provide ")
		sb.WriteString("should be in this format: 'yyyy-MM-dd HH:mm / Duration=mm / Keyword. Description'. ")
		sb.WriteString("If there is no keyword in the source text, the answer you provide ")
		sb.WriteString("should be in this format: 'yyyy-MM-dd HH:mm / Duration=mm / Description'. ")
	} else {
		sb.WriteString("The answer you provide should be in this format: 'yyyy-MM-dd HH:mm / Duration=mm / Description'. ")
	}
	sb.WriteString("There is no need to display the word 'Description'. ")
	sb.WriteString("Here is the source text: ")
	sb.WriteString(text)
	return sb.String()
}

func writeKeywordRules(sb *strings.Builder, kw KeywordConfig) {
	keywords := strings.TrimSpace(kw.Keywords)
	compound := strings.TrimSpace(kw.CompoundKeywords)

	if keywords != "" || compound != "" {
		sb.WriteString("The following keywords are possible: ")
		var all []string
		if keywords != "" {
			all = append(all, keywords)
		}
		if compound != "" {
			all = append(all, compound)
		}
		sb.WriteString(strings.Join(all, ", "))
		sb.WriteString(". ")
	}

	if compound != "" {
		for _, phrase := range strings.Split(compound, ",") {
			phrase = strings.TrimSpace(phrase)
			if phrase == "" {
				continue
			}
			fmt.Fprintf(sb, "If the original text contains together the words %s, then consider it one keyword. ", phrase)
		}
	}

	if def := strings.TrimSpace(kw.DefaultKeyword); def != "" {
		fmt.Fprintf(sb, "If there is no keyword, then you need to install keyword equals %s. ", def)
	}
}

// Search asks for
// "Start date: yyyy-MM-dd HH:mm / End date: yyyy-MM-dd HH:mm / Search type = t[ / Keyword = k]".
// Without a period the range is 01.01.1900 to 01.01.2100 so future
// appointments are found.
func (b *Builder) Search(text string) string {
	today := b.now()

	var sb strings.Builder
	sb.WriteString("Analyze the text and find 'Start Date', 'End Date', 'Keyword' and selection type. ")
	sb.WriteString("The period can be specified in free form. ")
	sb.WriteString("For example: last month, during the last year, last week, etc. ")
	fmt.Fprintf(&sb, "The period specified in this way is counted from the current day equal to %s. ", today.Format(promptDateLayout))
	sb.WriteString("If the period is not specified or the all-time period is assumed, ")
	fmt.Fprintf(&sb, "then 'Start Date' must be set equal to %s. ", searchRangeOpenStart)
	fmt.Fprintf(&sb, "And set 'End Date' equal to %s. ", searchRangeOpenEnd)
	writeKeywordLabelRules(&sb)
	sb.WriteString("It may be specified that either the first element found, or the last one, ")
	sb.WriteString("or all found elements should be selected. ")
	sb.WriteString("If need search first element Search type = first, if need search last element Search type = last, ")
	sb.WriteString("in other cases Search type = all. ")
	sb.WriteString("If there is a keyword, then answer strictly in the format: ")
	sb.WriteString("'Start date: yyyy-MM-dd HH:mm / End date: yyyy-MM-dd HH:mm / Search type = / Keyword = ', ")
	sb.WriteString("where the first date is the beginning of the period and the second date is the end of the period. ")
	sb.WriteString("If there is no keyword, then answer strictly in the format: ")
	sb.WriteString("'Start date: yyyy-MM-dd HH:mm / End date: yyyy-MM-dd HH:mm / Search type = ', ")
	sb.WriteString("where the first date is the beginning of the period and the second date is the end of the period. ")
	sb.WriteString("Here is the original text: ")
	sb.WriteString(text)
	return sb.String()
}

// Analytics asks for
// "Start date: yyyy-MM-dd HH:mm / End date: yyyy-MM-dd HH:mm[ / Keyword = k]".
// Without a period the range ends today at 23:59:59 because only time
// already spent is counted.
func (b *Builder) Analytics(text string) string {
	today := b.now()
	endOfToday := timeutil.EndOfDay(today)

	var sb strings.Builder
	sb.WriteString("Analyze the text and find 'Start Date', 'End Date' and the 'Keyword'. ")
	sb.WriteString("The period can be specified in free form. ")
	sb.WriteString("For example: last month, during the last year, last week, etc. ")
	fmt.Fprintf(&sb, "The period specified in this way is counted from the current day equal to %s. ", today.Format(promptDateLayout))
	sb.WriteString("If the period is not specified or the all-time period is assumed, ")
	fmt.Fprintf(&sb, "then 'Start Date' must be set equal to %s. ", searchRangeOpenStart)
	fmt.Fprintf(&sb, "And set 'End Date' equal to %s. ", endOfToday.Format(timeutil.LayoutSeconds))
	writeKeywordLabelRules(&sb)
	sb.WriteString("If there is a keyword, then answer strictly in the format: ")
	sb.WriteString("'Start date: yyyy-MM-dd HH:mm / End date: yyyy-MM-dd HH:mm / Keyword = ', ")
	sb.WriteString("where the first date is the beginning of the period and the second date is the end of the period. ")
	sb.WriteString("If there is no keyword, then answer strictly in the format: ")
	sb.WriteString("'Start date: yyyy-MM-dd HH:mm / End date: yyyy-MM-dd HH:mm', ")
	sb.WriteString("where the first date is the beginning of the period and the second date is the end of the period. ")
	sb.WriteString("Here is the original text: ")
	sb.WriteString(text)
	return sb.String()
}

func writeKeywordLabelRules(sb *strings.Builder) {
	sb.WriteString("The keyword comes after the word 'keyword' (if the text is in English). ")
	sb.WriteString("If the text is in any other language, the keyword will be after the keyword ")
	sb.WriteString("written in translation into that language. ")
	sb.WriteString("Keyword may be missing. ")
}

// Reformatting prompts, used for typed text that is already close to the
// grammar.

// Event creation errors the model is told to emit verbatim.
const (
	ErrDateNotSpecified        = "Error. Date is not specified."
	ErrTimeNotSpecified        = "Error. Time is not specified."
	ErrDescriptionNotSpecified = "Error. Description is not specified."
)

// IsModelError reports whether a completion is one of the literal errors
// the reformatting prompt allows.
func IsModelError(completion string) bool {
	return strings.HasPrefix(Normalize(completion), "Error.")
}

// TextPrompt returns the reformatting prompt for kind.
func (b *Builder) TextPrompt(kind RequestKind, text string) string {
	switch kind {
	case KindSearch:
		return b.SearchFromText(text)
	case KindAnalytics:
		return b.AnalyticsFromText(text)
	default:
		return b.CreateEventFromText(text)
	}
}

// CreateEventFromText asks for "yyyy-MM-dd HH:mm Description" or one of the
// literal errors.
func (b *Builder) CreateEventFromText(text string) string {
	var sb strings.Builder
	sb.WriteString("Analyze the source text. Find the date, time, and description. ")
	sb.WriteString("The date and time can be specified in a free format. ")
	fmt.Fprintf(&sb, "The current date is %s. ", b.now().Format(promptDateLayout))
	sb.WriteString("The description is the rest of the text. Format the source text ")
	sb.WriteString("and output it in the following format: yyyy-MM-dd HH:mm Description. ")
	fmt.Fprintf(&sb, "If the date is not specified in the source text, output: %s ", ErrDateNotSpecified)
	fmt.Fprintf(&sb, "If the time is not specified in the source text, output: %s ", ErrTimeNotSpecified)
	fmt.Fprintf(&sb, "If the description is missing in the source text, output: %s ", ErrDescriptionNotSpecified)
	sb.WriteString("Here is the source text: ")
	sb.WriteString(text)
	return sb.String()
}

// AnalyticsFromText asks for "yyyy-MM-dd yyyy-MM-dd[ Keyword]".
func (b *Builder) AnalyticsFromText(text string) string {
	var sb strings.Builder
	sb.WriteString("Analyze the source text. Find the start date, end date, and description. ")
	sb.WriteString("Dates can be specified in a free format. The description is the rest of the text. ")
	fmt.Fprintf(&sb, "The current date is %s. ", b.now().Format(promptDateLayout))
	sb.WriteString("Format the source text and output it in the following format: yyyy-MM-dd yyyy-MM-dd Description. ")
	sb.WriteString("The description may be missing. ")
	sb.WriteString("Here is the source text: ")
	sb.WriteString(text)
	return sb.String()
}

// SearchFromText asks for "yyyy-MM-dd / yyyy-MM-dd[ / Description][ / Search type]".
func (b *Builder) SearchFromText(text string) string {
	var sb strings.Builder
	sb.WriteString("Analyze the source text. Find the start date, end date, search type, and description. ")
	sb.WriteString("Dates can be specified in a free format. The search type can take ")
	sb.WriteString("the following values: first/last/all. Search type may be missing. ")
	sb.WriteString("Description - arbitrary text. Description may be missing. ")
	fmt.Fprintf(&sb, "The current date is %s. ", b.now().Format(promptDateLayout))
	sb.WriteString("Format the source text and output it in the following ")
	sb.WriteString("format: yyyy-MM-dd / yyyy-MM-dd / Description / Search type. ")
	sb.WriteString("Omit the segments that are missing. ")
	sb.WriteString("Here is the source text: ")
	sb.WriteString(text)
	return sb.String()
}

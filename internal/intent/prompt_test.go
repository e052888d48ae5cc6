package intent

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedBuilder() *Builder {
	return NewBuilder(func() time.Time {
		return time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	})
}

func TestCreateEventPrompt_AnchorsDates(t *testing.T) {
	p := fixedBuilder().CreateEvent("dentist tomorrow at ten", KeywordConfig{})

	assert.Contains(t, p, "current day equal to 2025.06.15")
	assert.Contains(t, p, "set the date equal to 2025.06.16")
	assert.Contains(t, p, "less than 01.01.2026, then the year 2025 is set. Otherwise, the year 2026 is set.")
	assert.Contains(t, p, "'May 15' without a year means 2026-05-15")
	assert.Contains(t, p, "set the time to 09:00")
	assert.Contains(t, p, "equal to 60 minutes")
	assert.True(t, strings.HasSuffix(p, "Here is the source text: dentist tomorrow at ten"))
}

func TestCreateEventPrompt_ReadsClockPerCall(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	b := NewBuilder(func() time.Time { return now })

	first := b.CreateEvent("x", KeywordConfig{})
	now = now.AddDate(0, 0, 1)
	second := b.CreateEvent("x", KeywordConfig{})

	assert.Contains(t, first, "2025.06.15")
	assert.Contains(t, second, "2025.06.16")
}

func TestCreateEventPrompt_WithoutKeywords(t *testing.T) {
	p := fixedBuilder().CreateEvent("x", KeywordConfig{})

	assert.NotContains(t, p, "'keyword'")
	assert.NotContains(t, p, "The following keywords are possible")
	assert.NotContains(t, p, "install keyword equals")
	assert.NotContains(t, p, "Keyword. Description")
	assert.Contains(t, p, "'yyyy-MM-dd HH:mm / Duration=mm / Description'")
}

func TestCreateEventPrompt_WithKeywords(t *testing.T) {
	p := fixedBuilder().CreateEvent("x", KeywordConfig{
		Keywords:         "Mike, Teresa",
		DefaultKeyword:   "Home",
		CompoundKeywords: "Partner1 Partner2, My family",
	})

	assert.Contains(t, p, "'keyword', ")
	assert.Contains(t, p, "The following keywords are possible: Mike, Teresa, Partner1 Partner2, My family. ")
	assert.Contains(t, p, "If the original text contains together the words Partner1 Partner2, then consider it one keyword. ")
	assert.Contains(t, p, "If the original text contains together the words My family, then consider it one keyword. ")
	assert.Contains(t, p, "If there is no keyword, then you need to install keyword equals Home. ")
	assert.Contains(t, p, "'yyyy-MM-dd HH:mm / Duration=mm / Keyword. Description'")
}

func TestCreateEventPrompt_OnlyCompoundKeywords(t *testing.T) {
	p := fixedBuilder().CreateEvent("x", KeywordConfig{CompoundKeywords: "My family"})

	assert.Contains(t, p, "The following keywords are possible: My family. ")
	assert.Equal(t, 1, strings.Count(p, "consider it one keyword"))
	assert.NotContains(t, p, "install keyword equals")
}

func TestSearchPrompt_OpenRange(t *testing.T) {
	p := fixedBuilder().Search("when is my next dentist")

	assert.Contains(t, p, "'Start Date' must be set equal to 01.01.1900")
	assert.Contains(t, p, "'End Date' equal to 01.01.2100")
	assert.Contains(t, p, "Search type = first")
	assert.Contains(t, p, "current day equal to 2025.06.15")
}

func TestAnalyticsPrompt_OpenRangeEndsToday(t *testing.T) {
	p := fixedBuilder().Analytics("how much time at the gym")

	assert.Contains(t, p, "'Start Date' must be set equal to 01.01.1900")
	assert.Contains(t, p, "'End Date' equal to 2025-06-15 23:59:59.")
	assert.NotContains(t, p, "Search type")
}

func TestTextPrompts(t *testing.T) {
	b := fixedBuilder()

	create := b.TextPrompt(KindCreateEvent, "20.06.2025 14:00 Dentist")
	assert.Contains(t, create, ErrDateNotSpecified)
	assert.Contains(t, create, ErrTimeNotSpecified)
	assert.Contains(t, create, ErrDescriptionNotSpecified)
	assert.Contains(t, create, "yyyy-MM-dd HH:mm Description")

	assert.Contains(t, b.TextPrompt(KindAnalytics, "x"), "yyyy-MM-dd yyyy-MM-dd Description")
	assert.Contains(t, b.TextPrompt(KindSearch, "x"), "yyyy-MM-dd / yyyy-MM-dd / Description / Search type")
}

func TestPromptDispatch(t *testing.T) {
	b := fixedBuilder()
	assert.Equal(t, b.Search("x"), b.Prompt(KindSearch, "x", KeywordConfig{}))
	assert.Equal(t, b.Analytics("x"), b.Prompt(KindAnalytics, "x", KeywordConfig{}))
	assert.Equal(t, b.CreateEvent("x", KeywordConfig{}), b.Prompt(KindCreateEvent, "x", KeywordConfig{}))
}

func TestIsModelError(t *testing.T) {
	assert.True(t, IsModelError(ErrDateNotSpecified))
	assert.True(t, IsModelError("  Error. Time is not specified.\n"))
	assert.False(t, IsModelError("2025-06-20 14:00 Error review"))
}

func TestRequestKindString(t *testing.T) {
	assert.Equal(t, "create_event", KindCreateEvent.String())
	assert.Equal(t, "search", KindSearch.String())
	assert.Equal(t, "analytics", KindAnalytics.String())
}

package e2e

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omriShneor/telcal/internal/bot"
	"github.com/omriShneor/telcal/internal/testutil"
)

const (
	chatID = "100"
	userID = "42"
)

func TestAuthorizeThenCreateEvent(t *testing.T) {
	h := testutil.NewHarness(t)
	h.Google.AddCalendar("me@example.com", "Personal", "Europe/Berlin", true)
	h.Google.AddCalendar("family@group.calendar.google.com", "Family", "Europe/Berlin", false)

	t.Run("start sends consent link", func(t *testing.T) {
		h.Text(chatID, userID, "/start")

		texts := h.Transport.Texts()
		require.Len(t, texts, 2)
		assert.Equal(t, "Follow the link, copy the code and send it to the bot", texts[0])
		assert.Contains(t, texts[1], h.Google.URL+"/auth?")
		assert.Contains(t, texts[1], "access_type=offline")
		assert.Contains(t, texts[1], "state=42")
		h.Transport.Reset()
	})

	t.Run("code lists calendars", func(t *testing.T) {
		h.Text(chatID, userID, h.Google.ValidCode)

		msg := h.Transport.Last()
		assert.Equal(t, "Select a calendar:", msg.Text)
		assert.Equal(t, [][]bot.Button{
			{{Label: "Personal", Data: "Calendar/42/0"}},
			{{Label: "Family", Data: "Calendar/42/1"}},
		}, msg.Rows)
		h.Transport.Reset()
	})

	t.Run("button selects calendar", func(t *testing.T) {
		h.Press(chatID, userID, "Calendar/42/1")

		assert.Equal(t, []string{"Calendar access has been successfully configured."}, h.Transport.Texts())
		h.Transport.Reset()
	})

	t.Run("bare text proposes and confirm creates", func(t *testing.T) {
		h.LLM.Answer("2025-06-16 14:00 Dentist")
		h.Text(chatID, userID, "dentist tomorrow at 2pm")

		msg := h.Transport.Last()
		assert.Equal(t, "Will be created:\n2025-06-16 14:00 / Duration=60 / Dentist", msg.Text)
		require.Len(t, msg.Rows, 1)
		assert.Empty(t, h.Google.Inserted("family@group.calendar.google.com"))

		h.Press(chatID, userID, msg.Rows[0][0].Data)

		assert.Equal(t, "Event created in Google Calendar.", h.Transport.Last().Text)
		inserted := h.Google.Inserted("family@group.calendar.google.com")
		require.Len(t, inserted, 1)
		assert.Equal(t, "Dentist", inserted[0].Summary)
		assert.Equal(t, "2025-06-16T14:00:00+02:00", inserted[0].Start.DateTime)
		assert.Equal(t, "2025-06-16T15:00:00+02:00", inserted[0].End.DateTime)
		assert.Equal(t, "Europe/Berlin", inserted[0].Start.TimeZone)

		prompts := h.LLM.Prompts()
		require.Len(t, prompts, 1)
		assert.Contains(t, prompts[0], "dentist tomorrow at 2pm")
	})

	t.Run("second confirm has nothing staged", func(t *testing.T) {
		h.Transport.Reset()
		h.Press(chatID, userID, "confirm_event")

		assert.Equal(t, []string{"Error creating event in calendar."}, h.Transport.Texts())
		assert.Len(t, h.Google.Inserted("family@group.calendar.google.com"), 1)
	})
}

func TestAuthorizeWithBadCode(t *testing.T) {
	h := testutil.NewHarness(t)

	h.Text(chatID, userID, "/start")
	h.Transport.Reset()
	h.Text(chatID, userID, "4/typo")

	assert.Equal(t, []string{"Malformed auth code."}, h.Transport.Texts())

	// The state was cleared, so the next text is an event request again.
	h.LLM.Answer("Error. Date is not specified.")
	h.Transport.Reset()
	h.Text(chatID, userID, "4/valid-code")
	assert.Equal(t, []string{"Error. Date is not specified."}, h.Transport.Texts())
}

func TestCancelLeavesCalendarUntouched(t *testing.T) {
	h := testutil.NewHarness(t)
	h.Google.AddCalendar("me@example.com", "Personal", "UTC", true)
	h.Connect(userID, "me@example.com")

	h.LLM.Answer("2025-06-20 09:00 / Duration=30 / Standup")
	h.Text(chatID, userID, "standup friday 9")
	h.Press(chatID, userID, "cancel_event")
	h.Press(chatID, userID, "confirm_event")

	assert.Equal(t, []string{
		"Will be created:\n2025-06-20 09:00 / Duration=30 / Standup",
		"Operation canceled",
		"Error creating event in calendar.",
	}, h.Transport.Texts())
	assert.Empty(t, h.Google.Inserted("me@example.com"))
}

func TestCreateWithoutCalendarAccess(t *testing.T) {
	h := testutil.NewHarness(t)

	h.LLM.Answer("2025-06-20 09:00 / Duration=30 / Standup")
	h.Text(chatID, userID, "standup friday 9")
	h.Press(chatID, userID, "confirm_event")

	assert.Equal(t, "Error accessing calendar", h.Transport.Last().Text)
}

func TestLanguageModelDown(t *testing.T) {
	h := testutil.NewHarness(t)

	// Nothing queued: the fake answers 500.
	h.Text(chatID, userID, "dentist tomorrow")

	assert.Equal(t, []string{"Error receiving response from the language model."}, h.Transport.Texts())
}

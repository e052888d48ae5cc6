package e2e

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omriShneor/telcal/internal/testutil"
)

func seededHarness(t *testing.T) *testutil.Harness {
	t.Helper()
	h := testutil.NewHarness(t)
	h.Google.AddCalendar("me@example.com", "Personal", "Europe/Berlin", true)
	h.Google.AddEvent("me@example.com", "Gym", "2025-06-03T18:00:00+02:00", "2025-06-03T19:30:00+02:00")
	h.Google.AddEvent("me@example.com", "Dentist", "2025-06-10T14:00:00+02:00", "2025-06-10T15:00:00+02:00")
	h.Google.AddEvent("me@example.com", "Gym", "2025-06-17T07:00:00+02:00", "2025-06-17T09:00:00+02:00")
	h.Connect(userID, "me@example.com")
	return h
}

func TestSearchByText(t *testing.T) {
	tests := []struct {
		name       string
		completion string
		want       []string
		notWant    []string
	}{
		{
			name:       "all matching",
			completion: "2025-06-01 / 2025-06-30 / all / Gym",
			want: []string{
				"Date = 2025-06-03 18:00, Duration = 1, Description = Gym",
				"Date = 2025-06-17 07:00, Duration = 2, Description = Gym",
			},
			notWant: []string{"Dentist"},
		},
		{
			name:       "last matching",
			completion: "2025-06-01 / 2025-06-30 / last / Gym",
			want:       []string{"Date = 2025-06-17 07:00, Duration = 2, Description = Gym"},
			notWant:    []string{"2025-06-03"},
		},
		{
			name:       "no keyword",
			completion: "2025-06-01 / 2025-06-30",
			want:       []string{"Dentist", "Gym"},
		},
		{
			name:       "nothing found",
			completion: "2025-06-01 / 2025-06-30 / Yoga",
			want:       []string{"Events not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := seededHarness(t)

			h.Text(chatID, userID, "/search")
			assert.Equal(t, "Send message with period, keyword (optional) and type search (optional).", h.Transport.Last().Text)

			h.LLM.Answer(tt.completion)
			h.Transport.Reset()
			h.Text(chatID, userID, "gym in june")

			texts := h.Transport.Texts()
			require.Len(t, texts, 1)
			for _, want := range tt.want {
				assert.Contains(t, texts[0], want)
			}
			for _, notWant := range tt.notWant {
				assert.NotContains(t, texts[0], notWant)
			}
		})
	}
}

func TestAnalyticsByText(t *testing.T) {
	h := seededHarness(t)

	h.Text(chatID, userID, "/analytics")
	h.LLM.Answer("2025-06-01 2025-06-30 Gym")
	h.Transport.Reset()
	h.Text(chatID, userID, "how much gym in june")

	// 1.5h truncates to 1, 2h stays 2.
	assert.Equal(t, []string{"Amount events: 2.\nAll time (hours): 3"}, h.Transport.Texts())
}

func TestSearchBadCompletionClearsState(t *testing.T) {
	h := seededHarness(t)

	h.Text(chatID, userID, "/search")
	h.LLM.Answer("sometime in June")
	h.Transport.Reset()
	h.Text(chatID, userID, "whenever")
	assert.Equal(t, []string{"Incorrect message format."}, h.Transport.Texts())

	// Back to the default flow: the next text is an event proposal.
	h.LLM.Answer("2025-06-20 09:00 / Duration=30 / Standup")
	h.Transport.Reset()
	h.Text(chatID, userID, "standup friday 9")
	assert.Equal(t, []string{"Will be created:\n2025-06-20 09:00 / Duration=30 / Standup"}, h.Transport.Texts())
}

func TestVoiceSearch(t *testing.T) {
	h := seededHarness(t)
	audio := []byte("OggS voice note")
	h.Speech.Transcribes(audio, "first gym session in June")

	h.Text(chatID, userID, "/search")
	h.LLM.Answer("Start date: 2025-06-01 00:00 / End date: 2025-06-30 23:59 / Search type = first / Keyword = Gym")
	h.Transport.Reset()
	h.Speak(chatID, userID, audio)

	assert.Equal(t, []string{
		"Your request: Start date: 2025-06-01 / End date: 2025-06-30 / Search type = first / Keyword = Gym",
		"Events found: \nDate = 2025-06-03 18:00, Duration = 1, Description = Gym",
	}, h.Transport.Texts())

	prompts := h.LLM.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "first gym session in June")
}

func TestVoiceCreatesEvent(t *testing.T) {
	h := seededHarness(t)
	audio := []byte("OggS lunch")
	h.Speech.Transcribes(audio, "lunch with Dana on Friday at noon for two hours")

	h.LLM.Answer("2025-06-20 12:00 / Duration=120 / Lunch with Dana")
	h.Speak(chatID, userID, audio)

	msg := h.Transport.Last()
	assert.Equal(t, "Will be created:\n2025-06-20 12:00 / Duration=120 / Lunch with Dana", msg.Text)

	h.Press(chatID, userID, "confirm_event")
	inserted := h.Google.Inserted("me@example.com")
	require.Len(t, inserted, 1)
	assert.Equal(t, "2025-06-20T14:00:00+02:00", inserted[0].End.DateTime)
}

func TestVoiceTranscriptionError(t *testing.T) {
	h := seededHarness(t)

	h.Speak(chatID, userID, []byte("unregistered audio"))

	assert.Equal(t, []string{"Error receiving audio file from telegram."}, h.Transport.Texts())
	assert.Empty(t, h.LLM.Prompts())
}

package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLocation(t *testing.T) {
	tests := []struct {
		name         string
		timezone     string
		wantName     string
		wantFallback bool
	}{
		{"empty", "", "UTC", true},
		{"unknown", "Mars/Olympus_Mons", "UTC", true},
		{"valid", "Europe/Berlin", "Europe/Berlin", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, fallback := ResolveLocation(tt.timezone)
			assert.Equal(t, tt.wantName, loc.String())
			assert.Equal(t, tt.wantFallback, fallback)
		})
	}
}

func TestParseLocal(t *testing.T) {
	loc, _ := ResolveLocation("America/New_York")

	got, err := ParseLocal("2025-01-10 09:30", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 10, 14, 30, 0, 0, time.UTC), got.UTC())

	_, err = ParseLocal("", loc)
	assert.Error(t, err)

	_, err = ParseLocal("10.01.2025 09:30", loc)
	assert.Error(t, err)

	got, err = ParseLocal("2025-01-10 09:30", nil)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())
}

func TestFormatLocal(t *testing.T) {
	loc, _ := ResolveLocation("Asia/Tokyo")
	instant := time.Date(2025, 6, 20, 5, 0, 0, 0, time.UTC)

	assert.Equal(t, "2025-06-20 14:00", FormatLocal(instant, loc))
	assert.Equal(t, "2025-06-20 05:00", FormatLocal(instant, nil))
}

func TestEndOfDay(t *testing.T) {
	loc, _ := ResolveLocation("Europe/Berlin")
	got := EndOfDay(time.Date(2025, 6, 15, 10, 30, 0, 0, loc))
	assert.Equal(t, time.Date(2025, 6, 15, 23, 59, 59, 0, loc), got)
	assert.Equal(t, "2025-06-15 23:59:59", got.Format(LayoutSeconds))
}

func TestEndOfMinute(t *testing.T) {
	loc, _ := ResolveLocation("Europe/Berlin")
	got := EndOfMinute(time.Date(2025, 6, 30, 23, 59, 0, 0, loc))
	assert.Equal(t, time.Date(2025, 6, 30, 23, 59, 59, 0, loc), got)
}

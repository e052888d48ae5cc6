package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omriShneor/telcal/internal/cache"
)

func newManagers(t *testing.T) map[string]*Manager {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return map[string]*Manager{
		"memory": NewManager(cache.NewMemory[Entry](time.Hour)),
		"redis":  NewManager(cache.NewRedis[Entry](client, "telcal:", time.Hour, zerolog.Nop())),
	}
}

func TestManager_State(t *testing.T) {
	for name, m := range newManagers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok := m.State(ctx, "c1")
			assert.False(t, ok, "new conversation is idle")

			m.SetState(ctx, "c1", AwaitingSearchInput)
			state, ok := m.State(ctx, "c1")
			require.True(t, ok)
			assert.Equal(t, AwaitingSearchInput, state)

			m.SetState(ctx, "c1", AwaitingAnalyticsInput)
			state, _ = m.State(ctx, "c1")
			assert.Equal(t, AwaitingAnalyticsInput, state)

			m.ClearState(ctx, "c1")
			_, ok = m.State(ctx, "c1")
			assert.False(t, ok)
		})
	}
}

func TestManager_ClearMissingIsNoop(t *testing.T) {
	for name, m := range newManagers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			assert.NotPanics(t, func() {
				m.ClearState(ctx, "never")
				m.ClearPending(ctx, "never")
				m.ClearChoices(ctx, "never")
			})
		})
	}
}

func TestManager_PurposesDoNotCollide(t *testing.T) {
	for name, m := range newManagers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			m.SetState(ctx, "42", AwaitingKeywordInput)
			m.SetPending(ctx, "42", PendingEvent{Text: "2025-06-20 14:00 / Duration=30. Dentist", UserID: "42"})
			m.SetChoices(ctx, "42", CalendarChoiceSet{Choices: []CalendarChoice{{ID: "primary", Name: "Me"}}})

			m.ClearPending(ctx, "42")

			state, ok := m.State(ctx, "42")
			require.True(t, ok)
			assert.Equal(t, AwaitingKeywordInput, state)

			_, ok = m.Pending(ctx, "42")
			assert.False(t, ok)

			set, ok := m.Choices(ctx, "42")
			require.True(t, ok)
			assert.Len(t, set.Choices, 1)
		})
	}
}

func TestManager_ConversationsAreIndependent(t *testing.T) {
	for name, m := range newManagers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			m.SetState(ctx, "a", AwaitingSearchInput)
			m.SetState(ctx, "b", AwaitingAuthorizationCode)
			m.ClearState(ctx, "a")

			_, okA := m.State(ctx, "a")
			b, okB := m.State(ctx, "b")
			assert.False(t, okA)
			assert.True(t, okB)
			assert.Equal(t, AwaitingAuthorizationCode, b)
		})
	}
}

func TestManager_PendingRoundTrip(t *testing.T) {
	for name, m := range newManagers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := PendingEvent{Text: "2025-06-20 14:00 / Duration=30 / Dentist", UserID: "7"}

			m.SetPending(ctx, "c1", want)
			got, ok := m.Pending(ctx, "c1")
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}
}

func TestStateExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	m := NewManager(cache.NewMemory[Entry](time.Hour, cache.WithClock(clock)))

	m.SetState(ctx, "c1", AwaitingSearchInput)
	now = now.Add(time.Hour)

	_, ok := m.State(ctx, "c1")
	assert.False(t, ok)
}

func TestCalendarChoiceSet_Lookup(t *testing.T) {
	set := CalendarChoiceSet{Choices: []CalendarChoice{
		{ID: "primary", Name: "Me"},
		{ID: "team@group.calendar.google.com", Name: "Team"},
	}}

	tests := []struct {
		index  int
		wantID string
		wantOK bool
	}{
		{0, "primary", true},
		{1, "team@group.calendar.google.com", true},
		{2, "", false},
		{-1, "", false},
	}

	for _, tt := range tests {
		choice, ok := set.Lookup(tt.index)
		assert.Equal(t, tt.wantOK, ok, "index %d", tt.index)
		assert.Equal(t, tt.wantID, choice.ID, "index %d", tt.index)
	}
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "state:100", Key{ID: "100", Purpose: PurposeState}.String())
	assert.NotEqual(t,
		Key{ID: "100", Purpose: PurposeState}.String(),
		Key{ID: "100", Purpose: PurposePending}.String())
}

func TestStatesAreDistinct(t *testing.T) {
	seen := make(map[State]bool)
	for _, s := range States {
		assert.False(t, seen[s], "duplicate state %s", s)
		seen[s] = true
	}
	assert.Len(t, seen, 8)
}

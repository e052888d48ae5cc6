// Package session holds the short-lived conversational state: the awaited
// input per conversation, the event proposal awaiting confirmation and the
// calendar choices offered after authorization.
package session

import (
	"context"
	"fmt"

	"github.com/omriShneor/telcal/internal/cache"
)

// State is the input a conversation is waiting for. Idle is represented by
// the absence of a stored state.
type State string

const (
	AwaitingAnalyticsInput       State = "awaiting_analytics_input"
	AwaitingSearchInput          State = "awaiting_search_input"
	AwaitingAuthorizationCode    State = "awaiting_authorization_code"
	AwaitingCalendarChoice       State = "awaiting_calendar_choice"
	AwaitingKeywordInput         State = "awaiting_keyword_input"
	AwaitingDefaultKeywordInput  State = "awaiting_default_keyword_input"
	AwaitingCompoundKeywordInput State = "awaiting_compound_keyword_input"
	AwaitingForwardedRequestText State = "awaiting_forwarded_request_text"
)

// States lists every state in declaration order.
var States = []State{
	AwaitingAnalyticsInput,
	AwaitingSearchInput,
	AwaitingAuthorizationCode,
	AwaitingCalendarChoice,
	AwaitingKeywordInput,
	AwaitingDefaultKeywordInput,
	AwaitingCompoundKeywordInput,
	AwaitingForwardedRequestText,
}

// Purpose separates the independent entries kept for one id.
type Purpose string

const (
	PurposeState   Purpose = "state"
	PurposePending Purpose = "pending"
	PurposeChoices Purpose = "choices"
)

// Key addresses one session entry. State and pending entries use the
// conversation id; choice entries use the user id.
type Key struct {
	ID      string
	Purpose Purpose
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Purpose, k.ID)
}

// PendingEvent is a validated event line awaiting the user's confirmation.
type PendingEvent struct {
	Text   string `json:"text"`
	UserID string `json:"user_id"`
}

// CalendarChoice is one calendar offered for selection.
type CalendarChoice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CalendarChoiceSet maps small indexes to calendars so button payloads stay
// short. The index of a choice is its position.
type CalendarChoiceSet struct {
	Choices []CalendarChoice `json:"choices"`
}

// Lookup returns the choice at index.
func (s CalendarChoiceSet) Lookup(index int) (CalendarChoice, bool) {
	if index < 0 || index >= len(s.Choices) {
		return CalendarChoice{}, false
	}
	return s.Choices[index], true
}

// Entry is the stored value. Exactly one field matching Key.Purpose is set.
type Entry struct {
	State   State              `json:"state,omitempty"`
	Pending *PendingEvent      `json:"pending,omitempty"`
	Choices *CalendarChoiceSet `json:"choices,omitempty"`
}

// Manager is the only writer of session entries.
type Manager struct {
	store cache.Store[Entry]
}

func NewManager(store cache.Store[Entry]) *Manager {
	return &Manager{store: store}
}

func (m *Manager) get(ctx context.Context, key Key) (Entry, bool) {
	return m.store.Get(ctx, key.String())
}

func (m *Manager) State(ctx context.Context, conversationID string) (State, bool) {
	e, ok := m.get(ctx, Key{ID: conversationID, Purpose: PurposeState})
	if !ok || e.State == "" {
		return "", false
	}
	return e.State, true
}

func (m *Manager) SetState(ctx context.Context, conversationID string, state State) {
	m.store.Set(ctx, Key{ID: conversationID, Purpose: PurposeState}.String(), Entry{State: state})
}

// ClearState returns the conversation to idle. Clearing an idle
// conversation is a no-op.
func (m *Manager) ClearState(ctx context.Context, conversationID string) {
	m.store.Delete(ctx, Key{ID: conversationID, Purpose: PurposeState}.String())
}

func (m *Manager) Pending(ctx context.Context, conversationID string) (PendingEvent, bool) {
	e, ok := m.get(ctx, Key{ID: conversationID, Purpose: PurposePending})
	if !ok || e.Pending == nil {
		return PendingEvent{}, false
	}
	return *e.Pending, true
}

func (m *Manager) SetPending(ctx context.Context, conversationID string, p PendingEvent) {
	m.store.Set(ctx, Key{ID: conversationID, Purpose: PurposePending}.String(), Entry{Pending: &p})
}

func (m *Manager) ClearPending(ctx context.Context, conversationID string) {
	m.store.Delete(ctx, Key{ID: conversationID, Purpose: PurposePending}.String())
}

func (m *Manager) Choices(ctx context.Context, userID string) (CalendarChoiceSet, bool) {
	e, ok := m.get(ctx, Key{ID: userID, Purpose: PurposeChoices})
	if !ok || e.Choices == nil {
		return CalendarChoiceSet{}, false
	}
	return *e.Choices, true
}

func (m *Manager) SetChoices(ctx context.Context, userID string, set CalendarChoiceSet) {
	m.store.Set(ctx, Key{ID: userID, Purpose: PurposeChoices}.String(), Entry{Choices: &set})
}

func (m *Manager) ClearChoices(ctx context.Context, userID string) {
	m.store.Delete(ctx, Key{ID: userID, Purpose: PurposeChoices}.String())
}

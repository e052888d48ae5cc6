package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"golang.org/x/oauth2"

	"github.com/omriShneor/telcal/internal/calendar"
	"github.com/omriShneor/telcal/internal/gcal"
	"github.com/omriShneor/telcal/internal/intent"
)

// MockCalendarBackend is a mock implementation of one credential's calendar API
type MockCalendarBackend struct {
	mock.Mock
}

func (m *MockCalendarBackend) TimeZone(ctx context.Context, calendarID string) (string, error) {
	args := m.Called(ctx, calendarID)
	return args.String(0), args.Error(1)
}

func (m *MockCalendarBackend) InsertEvent(ctx context.Context, calendarID string, input gcal.EventInput) (string, error) {
	args := m.Called(ctx, calendarID, input)
	return args.String(0), args.Error(1)
}

func (m *MockCalendarBackend) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string) ([]gcal.Event, error) {
	args := m.Called(ctx, calendarID, timeMin, timeMax, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gcal.Event), args.Error(1)
}

func (m *MockCalendarBackend) ListCalendars(ctx context.Context) ([]gcal.CalendarInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gcal.CalendarInfo), args.Error(1)
}

// MockAuthorizer is a mock implementation of the OAuth flow
type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) AuthURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockAuthorizer) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth2.Token), args.Error(1)
}

func (m *MockAuthorizer) Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth2.Token), args.Error(1)
}

// MockCalendarService is a mock implementation of the calendar orchestration service
type MockCalendarService struct {
	mock.Mock
}

func (m *MockCalendarService) CreateEvent(ctx context.Context, userID string, ev intent.EventCreation) error {
	args := m.Called(ctx, userID, ev)
	return args.Error(0)
}

func (m *MockCalendarService) SearchEvents(ctx context.Context, userID string, req intent.Search) (string, error) {
	args := m.Called(ctx, userID, req)
	return args.String(0), args.Error(1)
}

func (m *MockCalendarService) Analytics(ctx context.Context, userID string, req intent.Analytics) (calendar.AnalyticsResult, error) {
	args := m.Called(ctx, userID, req)
	return args.Get(0).(calendar.AnalyticsResult), args.Error(1)
}

func (m *MockCalendarService) AuthURL(userID string) string {
	args := m.Called(userID)
	return args.String(0)
}

func (m *MockCalendarService) Authorize(ctx context.Context, userID, code string) ([]gcal.CalendarInfo, error) {
	args := m.Called(ctx, userID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gcal.CalendarInfo), args.Error(1)
}

func (m *MockCalendarService) SelectCalendar(ctx context.Context, userID, calendarID string) error {
	args := m.Called(ctx, userID, calendarID)
	return args.Error(0)
}

// Package calendar creates, searches and totals a user's calendar events on
// top of the stored OAuth credential, refreshing it when needed.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/omriShneor/telcal/internal/database"
	"github.com/omriShneor/telcal/internal/gcal"
	"github.com/omriShneor/telcal/internal/intent"
	"github.com/omriShneor/telcal/internal/timeutil"
)

var (
	// ErrNoCredential means the user never authorized calendar access.
	ErrNoCredential = errors.New("no stored calendar credential")
	// ErrNoCalendar means the user authorized but has not chosen a calendar.
	ErrNoCalendar = errors.New("no calendar selected")
)

// Backend is one credential's view of the calendar API.
type Backend interface {
	TimeZone(ctx context.Context, calendarID string) (string, error)
	InsertEvent(ctx context.Context, calendarID string, input gcal.EventInput) (string, error)
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string) ([]gcal.Event, error)
	ListCalendars(ctx context.Context) ([]gcal.CalendarInfo, error)
}

// Authorizer performs the OAuth steps against the token endpoint.
type Authorizer interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
}

// Connector builds a Backend that acts with token.
type Connector func(ctx context.Context, token *oauth2.Token) (Backend, error)

// Profiles is the slice of the profile store the service needs.
type Profiles interface {
	Get(ctx context.Context, userID string) (*database.UserProfile, error)
	SaveToken(ctx context.Context, userID string, token *oauth2.Token) error
	SaveCalendar(ctx context.Context, userID, calendarID string) error
}

// Service orchestrates calendar operations for chat users.
type Service struct {
	profiles Profiles
	auth     Authorizer
	connect  Connector
	now      func() time.Time
	logger   zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(profiles Profiles, auth Authorizer, connect Connector, opts ...Option) *Service {
	s := &Service{
		profiles: profiles,
		auth:     auth,
		connect:  connect,
		now:      time.Now,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// session is a ready backend for one user's selected calendar.
type session struct {
	backend    Backend
	calendarID string
	timeZone   string
	loc        *time.Location
}

// open loads the credential, refreshes it when the access token is absent or
// expired, and resolves the calendar's time zone.
func (s *Service) open(ctx context.Context, userID string) (*session, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if !profile.HasCredential() {
		return nil, ErrNoCredential
	}
	if profile.CalendarID == "" {
		return nil, ErrNoCalendar
	}

	token, err := s.usableToken(ctx, userID, profile.Token)
	if err != nil {
		return nil, err
	}

	backend, err := s.connect(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to calendar: %w", err)
	}

	tz, err := backend.TimeZone(ctx, profile.CalendarID)
	if err != nil {
		return nil, err
	}
	loc, fallback := timeutil.ResolveLocation(tz)
	if fallback {
		s.logger.Warn().Str("user_id", userID).Str("timezone", tz).Msg("Unknown calendar time zone, using UTC")
	}

	return &session{backend: backend, calendarID: profile.CalendarID, timeZone: tz, loc: loc}, nil
}

func (s *Service) usableToken(ctx context.Context, userID string, token *oauth2.Token) (*oauth2.Token, error) {
	expired := !token.Expiry.IsZero() && !token.Expiry.After(s.now())
	if token.AccessToken != "" && !expired {
		return token, nil
	}

	fresh, err := s.auth.Refresh(ctx, token)
	if errors.Is(err, gcal.ErrNoRefreshToken) {
		return nil, fmt.Errorf("%w: %v", ErrNoCredential, err)
	}
	if err != nil {
		return nil, err
	}
	if err := s.profiles.SaveToken(ctx, userID, fresh); err != nil {
		// The fresh token is still usable for this request.
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to persist refreshed token")
	}
	s.logger.Debug().Str("user_id", userID).Msg("Refreshed calendar token")
	return fresh, nil
}

// CreateEvent inserts ev into the user's calendar. Summary and description
// both carry the event text.
func (s *Service) CreateEvent(ctx context.Context, userID string, ev intent.EventCreation) error {
	sess, err := s.open(ctx, userID)
	if err != nil {
		return err
	}

	start, err := ev.Start(sess.loc)
	if err != nil {
		return fmt.Errorf("invalid event start: %w", err)
	}
	end := start.Add(time.Duration(ev.DurationMinutes) * time.Minute)

	id, err := sess.backend.InsertEvent(ctx, sess.calendarID, gcal.EventInput{
		Summary:     ev.Description,
		Description: ev.Description,
		StartTime:   start,
		EndTime:     end,
		TimeZone:    sess.timeZone,
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("user_id", userID).Str("event_id", id).Msg("Created calendar event")
	return nil
}

// SearchEvents lists events in the range matching the keyword and renders
// the selection chosen by the search type.
func (s *Service) SearchEvents(ctx context.Context, userID string, req intent.Search) (string, error) {
	sess, err := s.open(ctx, userID)
	if err != nil {
		return "", err
	}

	events, err := s.list(ctx, sess, req.Start, req.End, req.Keyword)
	if err != nil {
		return "", err
	}

	return RenderSearch(Select(events, req.Type), sess.loc), nil
}

// Analytics counts events in the range matching the keyword and sums their
// whole hours.
func (s *Service) Analytics(ctx context.Context, userID string, req intent.Analytics) (AnalyticsResult, error) {
	sess, err := s.open(ctx, userID)
	if err != nil {
		return AnalyticsResult{}, err
	}

	events, err := s.list(ctx, sess, req.Start, req.End, req.Keyword)
	if err != nil {
		return AnalyticsResult{}, err
	}

	return Summarize(events), nil
}

func (s *Service) list(ctx context.Context, sess *session, start, end, keyword string) ([]gcal.Event, error) {
	timeMin, err := timeutil.ParseLocal(start, sess.loc)
	if err != nil {
		return nil, err
	}
	timeMax, err := timeutil.ParseLocal(end, sess.loc)
	if err != nil {
		return nil, err
	}

	return sess.backend.ListEvents(ctx, sess.calendarID, timeMin, timeutil.EndOfMinute(timeMax), keyword)
}

// AuthURL returns the consent URL for userID.
func (s *Service) AuthURL(userID string) string {
	return s.auth.AuthURL(userID)
}

// Authorize exchanges code, stores the credential and returns the calendars
// it can reach.
func (s *Service) Authorize(ctx context.Context, userID, code string) ([]gcal.CalendarInfo, error) {
	token, err := s.auth.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.SaveToken(ctx, userID, token); err != nil {
		return nil, err
	}

	backend, err := s.connect(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to calendar: %w", err)
	}
	calendars, err := backend.ListCalendars(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", userID).Int("calendars", len(calendars)).Msg("Calendar access authorized")
	return calendars, nil
}

// SelectCalendar stores the calendar the user's events go to.
func (s *Service) SelectCalendar(ctx context.Context, userID, calendarID string) error {
	return s.profiles.SaveCalendar(ctx, userID, calendarID)
}

// AuthorizationMessage is the text shown to the user when Authorize fails.
// Token endpoint errors carry a description meant for people, so it is
// preferred over the full error chain.
func AuthorizationMessage(err error) string {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		switch {
		case re.ErrorDescription != "":
			return re.ErrorDescription
		case re.ErrorCode != "":
			return re.ErrorCode
		}
	}
	return err.Error()
}

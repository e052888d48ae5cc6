// Package bot is the conversation state machine: it routes each inbound
// update through the maintenance gate, commands, button callbacks and the
// per-conversation awaited state, and turns outcomes into chat replies.
package bot

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/omriShneor/telcal/internal/calendar"
	"github.com/omriShneor/telcal/internal/database"
	"github.com/omriShneor/telcal/internal/gcal"
	"github.com/omriShneor/telcal/internal/intent"
	"github.com/omriShneor/telcal/internal/log"
	"github.com/omriShneor/telcal/internal/metrics"
	"github.com/omriShneor/telcal/internal/notify"
	"github.com/omriShneor/telcal/internal/session"
	"github.com/omriShneor/telcal/internal/voice"
)

// Completer returns the language model's answer to a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// VoiceTranscriber turns a voice attachment into text.
type VoiceTranscriber interface {
	Transcribe(ctx context.Context, ref voice.FileRef) (string, error)
}

// Calendar is the calendar orchestration the bot drives.
type Calendar interface {
	CreateEvent(ctx context.Context, userID string, ev intent.EventCreation) error
	SearchEvents(ctx context.Context, userID string, req intent.Search) (string, error)
	Analytics(ctx context.Context, userID string, req intent.Analytics) (calendar.AnalyticsResult, error)
	AuthURL(userID string) string
	Authorize(ctx context.Context, userID, code string) ([]gcal.CalendarInfo, error)
	SelectCalendar(ctx context.Context, userID, calendarID string) error
}

// Profiles reads and edits keyword preferences.
type Profiles interface {
	Get(ctx context.Context, userID string) (*database.UserProfile, error)
	SaveKeywords(ctx context.Context, userID, keywords string) error
	SaveDefaultKeyword(ctx context.Context, userID, keyword string) error
	SaveCompoundKeywords(ctx context.Context, userID, phrases string) error
	ClearKeywords(ctx context.Context, userID string) error
}

// RelayNotifier sends out-of-band copies of access requests.
type RelayNotifier interface {
	NotifyRelayRequest(ctx context.Context, req *notify.RelayRequest)
}

// Config is the bot's immutable behaviour switches.
type Config struct {
	MaintenanceMode bool
	// AdminUserID is exempt from maintenance and may answer relay requests.
	AdminUserID string
	// AdminChatID receives relay requests.
	AdminChatID       string
	UserRatePerMinute int
}

// Deps are the collaborators the bot calls. Relay may be nil.
type Deps struct {
	Transport Transport
	Sessions  *session.Manager
	Profiles  Profiles
	Calendar  Calendar
	Completer Completer
	Voice     VoiceTranscriber
	Prompts   *intent.Builder
	Relay     RelayNotifier
}

type command struct {
	handle    func(ctx context.Context, u Update, args string)
	adminOnly bool
}

type handlerFunc func(ctx context.Context, u Update)

// Bot handles updates. Handle is safe for concurrent use across
// conversations.
type Bot struct {
	cfg       Config
	transport Transport
	sessions  *session.Manager
	profiles  Profiles
	calendar  Calendar
	completer Completer
	voice     VoiceTranscriber
	prompts   *intent.Builder
	relay     RelayNotifier
	limiter   *userLimiter
	logger    zerolog.Logger

	commands  map[string]command
	callbacks map[string]handlerFunc
	states    map[session.State]handlerFunc
}

func New(cfg Config, deps Deps) *Bot {
	b := &Bot{
		cfg:       cfg,
		transport: deps.Transport,
		sessions:  deps.Sessions,
		profiles:  deps.Profiles,
		calendar:  deps.Calendar,
		completer: deps.Completer,
		voice:     deps.Voice,
		prompts:   deps.Prompts,
		relay:     deps.Relay,
		limiter:   newUserLimiter(cfg.UserRatePerMinute),
		logger:    log.WithComponent("bot"),
	}
	if b.prompts == nil {
		b.prompts = intent.NewBuilder(nil)
	}

	b.commands = map[string]command{
		cmdStart:     {handle: b.cmdStart},
		cmdHelp:      {handle: b.cmdHelp},
		cmdSearch:    {handle: b.cmdSearch},
		cmdAnalytics: {handle: b.cmdAnalytics},
		cmdSetting:   {handle: b.cmdSetting},
		cmdReply:     {handle: b.cmdReply, adminOnly: true},
	}

	b.callbacks = map[string]handlerFunc{
		cbConfirmEvent:     b.confirmEvent,
		cbCancelEvent:      b.cancelEvent,
		cbAllSettings:      b.requestAuthorization,
		cbKeywords:         b.awaitInput(session.AwaitingKeywordInput, msgRequestKeywords),
		cbDefaultKeyword:   b.awaitInput(session.AwaitingDefaultKeywordInput, msgRequestDefaultKeyword),
		cbCompoundKeywords: b.awaitInput(session.AwaitingCompoundKeywordInput, msgRequestCompoundKeywords),
		cbClearAllKeywords: b.clearKeywords,
		cbSubmit:           b.awaitInput(session.AwaitingForwardedRequestText, msgRequestSubmit),
	}

	b.states = map[session.State]handlerFunc{
		session.AwaitingAnalyticsInput:       b.analyticsFromText,
		session.AwaitingSearchInput:          b.searchFromText,
		session.AwaitingAuthorizationCode:    b.authorize,
		session.AwaitingCalendarChoice:       b.calendarFromText,
		session.AwaitingKeywordInput:         b.saveSetting(b.profiles.SaveKeywords, msgKeywordsSuccess, errSavingKeywords),
		session.AwaitingDefaultKeywordInput:  b.saveSetting(b.profiles.SaveDefaultKeyword, msgDefaultKeywordSuccess, errSavingDefault),
		session.AwaitingCompoundKeywordInput: b.saveSetting(b.profiles.SaveCompoundKeywords, msgCompoundKeywordsSuccess, errSavingCompound),
		session.AwaitingForwardedRequestText: b.forwardRequest,
	}

	return b
}

// Handle processes one update to completion. Failures are reported to the
// user and logged; a panic is recovered so the caller's update loop
// survives.
func (b *Bot) Handle(ctx context.Context, u Update) {
	ctx = log.ContextWithRequestID(ctx, uuid.NewString())
	ctx = log.ContextWithConversationID(ctx, u.ConversationID)
	logger := log.WithContext(ctx, b.logger)
	if u.ReceivedAt.IsZero() {
		u.ReceivedAt = time.Now()
	}

	outcome := "handled"
	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			logger.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic while handling update")
		}
		metrics.RecordUpdate(u.Kind(), outcome)
	}()

	if b.underMaintenance(u.UserID) {
		outcome = "maintenance"
		metrics.RecordMaintenanceRejected()
		b.reply(ctx, u.ConversationID, msgMaintenance)
		return
	}

	logger.Debug().Str("kind", u.Kind()).Str("user_id", u.UserID).Msg("Handling update")

	switch {
	case u.Callback != nil:
		b.handleCallback(ctx, u)
	case u.Voice != nil:
		b.handleVoice(ctx, u)
	default:
		b.handleText(ctx, u)
	}
}

func (b *Bot) underMaintenance(userID string) bool {
	return b.cfg.MaintenanceMode && userID != b.cfg.AdminUserID
}

func (b *Bot) isAdmin(userID string) bool {
	return b.cfg.AdminUserID != "" && userID == b.cfg.AdminUserID
}

// handleText dispatches commands first, then the awaited state, and finally
// treats the text as an event to create.
func (b *Bot) handleText(ctx context.Context, u Update) {
	if strings.TrimSpace(u.Text) == "" {
		return
	}

	if name, args, ok := parseCommand(u.Text); ok {
		if cmd, known := b.commands[name]; known && (!cmd.adminOnly || b.isAdmin(u.UserID)) {
			cmd.handle(ctx, u, args)
			return
		}
	}

	if state, ok := b.sessions.State(ctx, u.ConversationID); ok {
		if h, known := b.states[state]; known {
			h(ctx, u)
			return
		}
	}

	b.proposeEventFromText(ctx, u)
}

func (b *Bot) handleCallback(ctx context.Context, u Update) {
	data := u.Callback.Data
	if h, ok := b.callbacks[data]; ok {
		h(ctx, u)
		return
	}
	if strings.HasPrefix(data, cbCalendarPrefix) {
		b.calendarFromButton(ctx, u)
		return
	}
	log.WithContext(ctx, b.logger).Debug().Str("data", data).Msg("Ignoring unknown callback")
}

// handleVoice answers the awaited search or analytics request, or proposes
// an event when nothing is awaited.
func (b *Bot) handleVoice(ctx context.Context, u Update) {
	state, _ := b.sessions.State(ctx, u.ConversationID)
	switch state {
	case session.AwaitingSearchInput:
		b.sessions.ClearState(ctx, u.ConversationID)
		b.searchFromVoice(ctx, u)
	case session.AwaitingAnalyticsInput:
		b.sessions.ClearState(ctx, u.ConversationID)
		b.analyticsFromVoice(ctx, u)
	default:
		b.proposeEventFromVoice(ctx, u)
	}
}

// parseCommand splits "/name@bot args" into "/name" and "args".
func parseCommand(text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	name, args, _ = strings.Cut(text, " ")
	name, _, _ = strings.Cut(name, "@")
	return name, strings.TrimSpace(args), true
}

func (b *Bot) send(ctx context.Context, msg Message) {
	if err := b.transport.Send(ctx, msg); err != nil {
		log.WithContext(ctx, b.logger).Error().Err(err).Msg("Failed to send message")
	}
}

func (b *Bot) reply(ctx context.Context, conversationID, body string) {
	b.send(ctx, text(conversationID, body))
}

// acknowledge tells the user how the request was understood before the
// slower calendar call starts. Delivery failures are only logged.
func (b *Bot) acknowledge(ctx context.Context, conversationID, body string) {
	b.reply(ctx, conversationID, body)
}

// allow applies the per-user limit to language-model bound work and tells
// the user when they are over it.
func (b *Bot) allow(ctx context.Context, u Update) bool {
	if b.limiter.Allow(ctx, u.UserID) {
		return true
	}
	metrics.RecordRateLimited()
	log.WithContext(ctx, b.logger).Warn().Str("user_id", u.UserID).Msg("User rate limited")
	b.reply(ctx, u.ConversationID, msgRateLimited)
	return false
}

// complete calls the language model and returns the normalized answer.
func (b *Bot) complete(ctx context.Context, prompt string) (string, error) {
	started := time.Now()
	completion, err := b.completer.Complete(ctx, prompt)
	metrics.ObserveUpstream(metrics.BackendLLM, started, err)
	if err != nil {
		return "", err
	}
	return intent.Normalize(completion), nil
}

func (b *Bot) transcribe(ctx context.Context, ref voice.FileRef) (string, error) {
	started := time.Now()
	transcript, err := b.voice.Transcribe(ctx, ref)
	metrics.ObserveUpstream(metrics.BackendTranscribe, started, err)
	return transcript, err
}

// keywordConfig loads the user's keyword preferences. A missing or
// unreadable profile yields no keywords.
func (b *Bot) keywordConfig(ctx context.Context, userID string) intent.KeywordConfig {
	p, err := b.profiles.Get(ctx, userID)
	if err != nil {
		log.WithContext(ctx, b.logger).Warn().Err(err).Str("user_id", userID).Msg("Failed to load keyword preferences")
		return intent.KeywordConfig{}
	}
	if p == nil {
		return intent.KeywordConfig{}
	}
	return intent.KeywordConfig{
		Keywords:         p.Keywords,
		DefaultKeyword:   p.DefaultKeyword,
		CompoundKeywords: p.CompoundKeywords,
	}
}

// calendarFailure maps a calendar error to the reply. Missing or revoked
// access gets its own message; everything else gets fallback.
func calendarFailure(err error, fallback string) string {
	var re *oauth2.RetrieveError
	switch {
	case errors.Is(err, calendar.ErrNoCredential), errors.Is(err, calendar.ErrNoCalendar), errors.As(err, &re):
		return errAccessingCalendar
	default:
		return fallback
	}
}

func (b *Bot) logFailure(ctx context.Context, err error, msg string) {
	log.WithContext(ctx, b.logger).Warn().Err(err).Msg(msg)
}

// Package testutil wires the bot against fake chat, language model, speech
// and Google backends so flows can be tested end to end.
package testutil

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/omriShneor/telcal/internal/bot"
	"github.com/omriShneor/telcal/internal/cache"
	"github.com/omriShneor/telcal/internal/calendar"
	"github.com/omriShneor/telcal/internal/database"
	"github.com/omriShneor/telcal/internal/gcal"
	"github.com/omriShneor/telcal/internal/intent"
	"github.com/omriShneor/telcal/internal/llm"
	"github.com/omriShneor/telcal/internal/profile"
	"github.com/omriShneor/telcal/internal/session"
	"github.com/omriShneor/telcal/internal/transcribe"
	"github.com/omriShneor/telcal/internal/voice"
)

// Today is the date the prompt builder sees.
var Today = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

// Harness is a fully wired bot with every backend faked.
type Harness struct {
	Bot        *bot.Bot
	DB         *database.DB
	Profiles   *profile.Store
	Sessions   *session.Manager
	Transport  *RecordingTransport
	Google     *FakeGoogle
	LLM        *FakeLLM
	Speech     *FakeSpeech
	Downloader *FakeDownloader
	Redis      *miniredis.Miniredis

	t *testing.T
}

// HarnessOption configures a harness
type HarnessOption func(*bot.Config)

// WithBotConfig replaces the bot switches.
func WithBotConfig(cfg bot.Config) HarnessOption {
	return func(c *bot.Config) { *c = cfg }
}

// NewHarness builds the bot. Sessions live in miniredis so the Redis store
// is exercised the same way a deployment with TELCAL_REDIS_ADDR is.
func NewHarness(t *testing.T, opts ...HarnessOption) *Harness {
	t.Helper()

	cfg := bot.Config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	h := &Harness{
		DB:         database.NewTestDB(t),
		Transport:  &RecordingTransport{},
		Google:     NewFakeGoogle(t),
		LLM:        NewFakeLLM(t),
		Speech:     NewFakeSpeech(t),
		Downloader: &FakeDownloader{},
		Redis:      mr,
		t:          t,
	}
	h.Profiles = profile.NewStore(h.DB, cache.NewMemory[database.UserProfile](time.Minute))
	h.Sessions = session.NewManager(cache.NewRedis[session.Entry](redisClient, "telcal:session:", time.Hour, zerolog.Nop()))

	oauthConfig := &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/oauth/callback",
		Scopes:       []string{"https://www.googleapis.com/auth/calendar"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  h.Google.URL + "/auth",
			TokenURL: h.Google.URL + "/token",
		},
	}
	service := calendar.NewService(h.Profiles, gcal.NewOAuthFromConfig(oauthConfig),
		func(ctx context.Context, token *oauth2.Token) (calendar.Backend, error) {
			return gcal.NewClient(ctx,
				option.WithEndpoint(h.Google.URL+"/"),
				option.WithHTTPClient(oauthConfig.Client(context.Background(), token)),
			)
		},
	)

	h.Bot = bot.New(cfg, bot.Deps{
		Transport: h.Transport,
		Sessions:  h.Sessions,
		Profiles:  h.Profiles,
		Calendar:  service,
		Completer: llm.NewClient("sk-test", "gpt-4o-mini", h.LLM.URL),
		Voice:     voice.NewPipeline(h.Downloader, transcribe.NewClient("aai-test", h.Speech.URL, time.Millisecond)),
		Prompts:   intent.NewBuilder(func() time.Time { return Today }),
	})

	return h
}

// Text delivers a text message and waits for background replies.
func (h *Harness) Text(conversationID, userID, text string) {
	h.handle(bot.Update{ConversationID: conversationID, UserID: userID, Text: text})
}

// Press delivers an inline button press.
func (h *Harness) Press(conversationID, userID, data string) {
	h.handle(bot.Update{ConversationID: conversationID, UserID: userID, Callback: &bot.Callback{ID: "1", Data: data}})
}

// Speak delivers a voice note whose bytes are audio.
func (h *Harness) Speak(conversationID, userID string, audio []byte) {
	id := time.Now().UnixNano()
	h.Downloader.Put(id, audio)
	h.handle(bot.Update{ConversationID: conversationID, UserID: userID, Voice: &voice.FileRef{ID: id, MimeType: "audio/ogg"}})
}

func (h *Harness) handle(u bot.Update) {
	u.ReceivedAt = time.Now()
	h.Bot.Handle(context.Background(), u)
}

// Connect stores a valid credential and calendar for userID, as if the
// authorization flow had completed.
func (h *Harness) Connect(userID, calendarID string) {
	h.t.Helper()
	ctx := context.Background()
	require.NoError(h.t, h.Profiles.SaveToken(ctx, userID, &oauth2.Token{
		AccessToken:  "access-" + strconv.Itoa(len(userID)),
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}))
	require.NoError(h.t, h.Profiles.SaveCalendar(ctx, userID, calendarID))
}

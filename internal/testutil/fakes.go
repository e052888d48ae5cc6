package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"google.golang.org/api/calendar/v3"

	"github.com/omriShneor/telcal/internal/bot"
	"github.com/omriShneor/telcal/internal/voice"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RecordingTransport captures outbound chat messages.
type RecordingTransport struct {
	mu       sync.Mutex
	messages []bot.Message
}

func (r *RecordingTransport) Send(_ context.Context, msg bot.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

// Messages returns everything sent so far.
func (r *RecordingTransport) Messages() []bot.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bot.Message(nil), r.messages...)
}

// Texts returns the text of every message sent so far.
func (r *RecordingTransport) Texts() []string {
	msgs := r.Messages()
	texts := make([]string, len(msgs))
	for i, m := range msgs {
		texts[i] = m.Text
	}
	return texts
}

// Last returns the most recent message.
func (r *RecordingTransport) Last() bot.Message {
	msgs := r.Messages()
	if len(msgs) == 0 {
		return bot.Message{}
	}
	return msgs[len(msgs)-1]
}

// Reset forgets recorded messages.
func (r *RecordingTransport) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}

// FakeLLM serves the chat completions API with queued answers. An empty
// queue answers 500.
type FakeLLM struct {
	*httptest.Server

	mu      sync.Mutex
	answers []string
	prompts []string
}

func NewFakeLLM(t *testing.T) *FakeLLM {
	t.Helper()
	f := &FakeLLM{}
	r := chi.NewRouter()
	r.Post("/chat/completions", f.serve)
	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Close)
	return f
}

// Answer queues completions returned in order.
func (f *FakeLLM) Answer(completions ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, completions...)
}

// Prompts returns every prompt received.
func (f *FakeLLM) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func (f *FakeLLM) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]string{"message": "bad request"}})
		return
	}

	f.mu.Lock()
	f.prompts = append(f.prompts, req.Messages[len(req.Messages)-1].Content)
	if len(f.answers) == 0 {
		f.mu.Unlock()
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": map[string]string{"message": "no answer queued", "type": "server_error"}})
		return
	}
	answer := f.answers[0]
	f.answers = f.answers[1:]
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": answer}}},
	})
}

// FakeSpeech serves the AssemblyAI upload and transcript endpoints. Audio
// whose bytes have no registered transcript ends in the error status.
type FakeSpeech struct {
	*httptest.Server

	mu          sync.Mutex
	transcripts map[string]string
	uploads     []string
	jobs        map[string]string
}

func NewFakeSpeech(t *testing.T) *FakeSpeech {
	t.Helper()
	f := &FakeSpeech{transcripts: map[string]string{}, jobs: map[string]string{}}

	r := chi.NewRouter()
	r.Post("/v2/upload", f.upload)
	r.Post("/v2/transcript", f.submit)
	r.Get("/v2/transcript/{id}", f.poll)
	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Close)
	return f
}

// Transcribes registers the transcript for audio.
func (f *FakeSpeech) Transcribes(audio []byte, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcripts[string(audio)] = text
}

func (f *FakeSpeech) upload(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	f.mu.Lock()
	f.uploads = append(f.uploads, string(data))
	n := len(f.uploads)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"upload_url": fmt.Sprintf("https://cdn.example/upload/%d", n-1)})
}

func (f *FakeSpeech) submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AudioURL string `json:"audio_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	id := "job-" + strings.TrimPrefix(req.AudioURL, "https://cdn.example/upload/")

	f.mu.Lock()
	f.jobs[id] = req.AudioURL
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "queued"})
}

func (f *FakeSpeech) poll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "transcript not found"})
		return
	}
	var index int
	fmt.Sscanf(strings.TrimPrefix(id, "job-"), "%d", &index)
	text, ok := f.transcripts[f.uploads[index]]
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "error", "error": "audio is empty"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "completed", "text": text})
}

// FakeDownloader serves voice attachments from memory.
type FakeDownloader struct {
	mu    sync.Mutex
	files map[int64][]byte
}

// Put stores audio under id.
func (d *FakeDownloader) Put(id int64, audio []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.files == nil {
		d.files = map[int64][]byte{}
	}
	d.files[id] = audio
}

func (d *FakeDownloader) DownloadVoice(_ context.Context, ref voice.FileRef, w io.Writer) error {
	d.mu.Lock()
	audio, ok := d.files[ref.ID]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("file %d not found", ref.ID)
	}
	_, err := w.Write(audio)
	return err
}

// FakeGoogle serves the OAuth token endpoint and the slice of the Calendar
// API the bot uses. Only ValidCode can be exchanged.
type FakeGoogle struct {
	*httptest.Server

	ValidCode string

	mu        sync.Mutex
	calendars []*calendar.CalendarListEntry
	events    map[string][]*calendar.Event
	inserted  map[string][]*calendar.Event
	issued    int
}

func NewFakeGoogle(t *testing.T) *FakeGoogle {
	t.Helper()
	f := &FakeGoogle{
		ValidCode: "4/valid-code",
		events:    map[string][]*calendar.Event{},
		inserted:  map[string][]*calendar.Event{},
	}

	r := chi.NewRouter()
	r.Post("/token", f.token)
	r.Group(func(r chi.Router) {
		r.Use(requireBearer)
		r.Get("/users/me/calendarList", f.listCalendars)
		r.Get("/calendars/{calendarID}", f.getCalendar)
		r.Get("/calendars/{calendarID}/events", f.listEvents)
		r.Post("/calendars/{calendarID}/events", f.insertEvent)
	})
	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Close)
	return f
}

// AddCalendar makes a calendar visible to every credential.
func (f *FakeGoogle) AddCalendar(id, summary, timeZone string, primary bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calendars = append(f.calendars, &calendar.CalendarListEntry{Id: id, Summary: summary, TimeZone: timeZone, Primary: primary, AccessRole: "owner"})
}

// AddEvent seeds an existing event. start and end are RFC 3339.
func (f *FakeGoogle) AddEvent(calendarID, summary, start, end string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[calendarID] = append(f.events[calendarID], &calendar.Event{
		Id:      fmt.Sprintf("seed_%d", len(f.events[calendarID])),
		Summary: summary,
		Start:   &calendar.EventDateTime{DateTime: start},
		End:     &calendar.EventDateTime{DateTime: end},
	})
}

// Inserted returns the events the bot created in calendarID.
func (f *FakeGoogle) Inserted(calendarID string) []*calendar.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*calendar.Event(nil), f.inserted[calendarID]...)
}

func requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"code": 401, "message": "Login Required"}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func calendarParam(r *http.Request) string {
	id := chi.URLParam(r, "calendarID")
	if unescaped, err := url.PathUnescape(id); err == nil {
		return unescaped
	}
	return id
}

func (f *FakeGoogle) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	if r.PostForm.Get("grant_type") == "authorization_code" && r.PostForm.Get("code") != f.ValidCode {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_grant",
			"error_description": "Malformed auth code.",
		})
		return
	}

	f.mu.Lock()
	f.issued++
	n := f.issued
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  fmt.Sprintf("access-%d", n),
		"refresh_token": "refresh-1",
		"token_type":    "Bearer",
		"expires_in":    3600,
	})
}

func (f *FakeGoogle) listCalendars(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, calendar.CalendarList{Items: f.calendars})
}

func (f *FakeGoogle) getCalendar(w http.ResponseWriter, r *http.Request) {
	id := calendarParam(r)

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calendars {
		if c.Id == id {
			writeJSON(w, http.StatusOK, calendar.Calendar{Id: c.Id, Summary: c.Summary, TimeZone: c.TimeZone})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{"code": 404, "message": "Not Found"}})
}

func (f *FakeGoogle) listEvents(w http.ResponseWriter, r *http.Request) {
	id := calendarParam(r)
	q := strings.ToLower(r.URL.Query().Get("q"))

	f.mu.Lock()
	defer f.mu.Unlock()
	var items []*calendar.Event
	for _, e := range append(append([]*calendar.Event(nil), f.events[id]...), f.inserted[id]...) {
		if q == "" || strings.Contains(strings.ToLower(e.Summary), q) {
			items = append(items, e)
		}
	}
	writeJSON(w, http.StatusOK, calendar.Events{Items: items})
}

func (f *FakeGoogle) insertEvent(w http.ResponseWriter, r *http.Request) {
	id := calendarParam(r)

	var ev calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"code": 400, "message": err.Error()}})
		return
	}

	f.mu.Lock()
	ev.Id = fmt.Sprintf("evt_%d", len(f.inserted[id])+1)
	f.inserted[id] = append(f.inserted[id], &ev)
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, ev)
}

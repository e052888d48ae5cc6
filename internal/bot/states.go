package bot

import (
	"context"
	"strings"
	"time"

	"github.com/omriShneor/telcal/internal/calendar"
	"github.com/omriShneor/telcal/internal/gcal"
	"github.com/omriShneor/telcal/internal/intent"
	"github.com/omriShneor/telcal/internal/log"
	"github.com/omriShneor/telcal/internal/metrics"
	"github.com/omriShneor/telcal/internal/notify"
	"github.com/omriShneor/telcal/internal/session"
)

// Every state handler clears its state before doing anything that can fail.

func (b *Bot) searchFromText(ctx context.Context, u Update) {
	b.sessions.ClearState(ctx, u.ConversationID)
	if !b.allow(ctx, u) {
		return
	}

	completion, ok := b.reformat(ctx, u, intent.KindSearch)
	if !ok {
		return
	}
	req, ok := intent.ParseSearchText(completion)
	if !ok {
		b.reply(ctx, u.ConversationID, errIncorrectFormat)
		return
	}
	b.search(ctx, u, req)
}

func (b *Bot) analyticsFromText(ctx context.Context, u Update) {
	b.sessions.ClearState(ctx, u.ConversationID)
	if !b.allow(ctx, u) {
		return
	}

	completion, ok := b.reformat(ctx, u, intent.KindAnalytics)
	if !ok {
		return
	}
	req, ok := intent.ParseAnalyticsText(completion)
	if !ok {
		b.reply(ctx, u.ConversationID, errIncorrectFormat)
		return
	}
	b.analytics(ctx, u, req)
}

// proposeEventFromText stages the event the text describes and asks for
// confirmation.
func (b *Bot) proposeEventFromText(ctx context.Context, u Update) {
	if !b.allow(ctx, u) {
		return
	}

	completion, ok := b.reformat(ctx, u, intent.KindCreateEvent)
	if !ok {
		return
	}
	ev, ok := intent.ParseEventCreation(completion)
	if !ok {
		b.reply(ctx, u.ConversationID, errIncorrectFormat)
		return
	}
	b.stageEvent(ctx, u, ev)
}

// reformat asks the model to rewrite the user's text into the grammar of
// kind. A literal "Error." answer is passed to the user as is.
func (b *Bot) reformat(ctx context.Context, u Update, kind intent.RequestKind) (string, bool) {
	completion, err := b.complete(ctx, b.prompts.TextPrompt(kind, u.Text))
	if err != nil {
		b.logFailure(ctx, err, "Language model request failed")
		b.reply(ctx, u.ConversationID, errLanguageModel)
		return "", false
	}
	if intent.IsModelError(completion) {
		b.reply(ctx, u.ConversationID, completion)
		return "", false
	}
	return completion, true
}

func (b *Bot) searchFromVoice(ctx context.Context, u Update) {
	transcript, ok := b.voiceText(ctx, u)
	if !ok {
		return
	}
	completion, err := b.complete(ctx, b.prompts.Prompt(intent.KindSearch, transcript, intent.KeywordConfig{}))
	if err != nil {
		b.logFailure(ctx, err, "Language model request failed")
		b.reply(ctx, u.ConversationID, errLanguageModel)
		return
	}
	req, ok := intent.ParseSearchVoice(completion)
	if !ok {
		b.reply(ctx, u.ConversationID, errIncorrectFormat)
		return
	}

	b.acknowledge(ctx, u.ConversationID, intent.SearchAcknowledgement(req))
	b.search(ctx, u, req)
}

func (b *Bot) analyticsFromVoice(ctx context.Context, u Update) {
	transcript, ok := b.voiceText(ctx, u)
	if !ok {
		return
	}
	completion, err := b.complete(ctx, b.prompts.Prompt(intent.KindAnalytics, transcript, intent.KeywordConfig{}))
	if err != nil {
		b.logFailure(ctx, err, "Language model request failed")
		b.reply(ctx, u.ConversationID, errLanguageModel)
		return
	}
	req, ok := intent.ParseAnalyticsVoice(completion)
	if !ok {
		b.reply(ctx, u.ConversationID, errIncorrectFormat)
		return
	}

	b.acknowledge(ctx, u.ConversationID, intent.AnalyticsAcknowledgement(req))
	b.analytics(ctx, u, req)
}

func (b *Bot) proposeEventFromVoice(ctx context.Context, u Update) {
	transcript, ok := b.voiceText(ctx, u)
	if !ok {
		return
	}
	kw := b.keywordConfig(ctx, u.UserID)
	completion, err := b.complete(ctx, b.prompts.Prompt(intent.KindCreateEvent, transcript, kw))
	if err != nil {
		b.logFailure(ctx, err, "Language model request failed")
		b.reply(ctx, u.ConversationID, errLanguageModel)
		return
	}
	ev, ok := intent.ParseEventCreation(completion)
	if !ok {
		b.reply(ctx, u.ConversationID, errIncorrectFormat)
		return
	}
	b.stageEvent(ctx, u, ev)
}

// voiceText applies the rate limit and transcribes the attachment.
func (b *Bot) voiceText(ctx context.Context, u Update) (string, bool) {
	if !b.allow(ctx, u) {
		return "", false
	}
	transcript, err := b.transcribe(ctx, *u.Voice)
	if err != nil || strings.TrimSpace(transcript) == "" {
		b.logFailure(ctx, err, "Voice transcription failed")
		b.reply(ctx, u.ConversationID, errReceivingAudio)
		return "", false
	}
	log.WithContext(ctx, b.logger).Debug().Int("chars", len(transcript)).Msg("Voice transcribed")
	return transcript, true
}

func (b *Bot) stageEvent(ctx context.Context, u Update, ev intent.EventCreation) {
	line := ev.Line()
	b.sessions.SetPending(ctx, u.ConversationID, session.PendingEvent{Text: line, UserID: u.UserID})
	b.send(ctx, confirmationMessage(u.ConversationID, line))
}

func (b *Bot) search(ctx context.Context, u Update, req intent.Search) {
	started := time.Now()
	result, err := b.calendar.SearchEvents(ctx, u.UserID, req)
	metrics.ObserveUpstream(metrics.BackendCalendar, started, err)
	if err != nil {
		b.logFailure(ctx, err, "Failed to search events")
		b.reply(ctx, u.ConversationID, calendarFailure(err, errSearching))
		return
	}
	b.reply(ctx, u.ConversationID, result)
}

func (b *Bot) analytics(ctx context.Context, u Update, req intent.Analytics) {
	started := time.Now()
	result, err := b.calendar.Analytics(ctx, u.UserID, req)
	metrics.ObserveUpstream(metrics.BackendCalendar, started, err)
	if err != nil {
		b.logFailure(ctx, err, "Failed to collect analytics")
		b.reply(ctx, u.ConversationID, calendarFailure(err, errCollectingAnalytics))
		return
	}
	b.reply(ctx, u.ConversationID, result.String())
}

// authorize exchanges the pasted code and offers the reachable calendars.
// The conversation returns to idle either way; the choice keyboard works
// through callbacks, which are not gated by state.
func (b *Bot) authorize(ctx context.Context, u Update) {
	b.sessions.ClearState(ctx, u.ConversationID)

	started := time.Now()
	calendars, err := b.calendar.Authorize(ctx, u.UserID, strings.TrimSpace(u.Text))
	metrics.ObserveUpstream(metrics.BackendCalendar, started, err)
	if err != nil {
		b.logFailure(ctx, err, "Authorization code exchange failed")
		b.reply(ctx, u.ConversationID, calendar.AuthorizationMessage(err))
		return
	}
	if len(calendars) == 0 {
		b.reply(ctx, u.ConversationID, errSavingCalendar)
		return
	}

	set := choiceSet(calendars)
	b.sessions.SetChoices(ctx, u.UserID, set)
	b.send(ctx, calendarChoiceMessage(u.ConversationID, u.UserID, set))
}

func choiceSet(calendars []gcal.CalendarInfo) session.CalendarChoiceSet {
	choices := make([]session.CalendarChoice, len(calendars))
	for i, c := range calendars {
		name := c.Summary
		if name == "" {
			name = c.ID
		}
		choices[i] = session.CalendarChoice{ID: c.ID, Name: name}
	}
	return session.CalendarChoiceSet{Choices: choices}
}

// calendarFromText stores a calendar id typed instead of pressing a button.
func (b *Bot) calendarFromText(ctx context.Context, u Update) {
	b.sessions.ClearState(ctx, u.ConversationID)
	b.sessions.ClearChoices(ctx, u.UserID)
	b.selectCalendar(ctx, u, strings.TrimSpace(u.Text))
}

// saveSetting returns the handler for one keyword field.
func (b *Bot) saveSetting(save func(ctx context.Context, userID, value string) error, success, failure string) handlerFunc {
	return func(ctx context.Context, u Update) {
		b.sessions.ClearState(ctx, u.ConversationID)
		if err := save(ctx, u.UserID, strings.TrimSpace(u.Text)); err != nil {
			b.logFailure(ctx, err, "Failed to save setting")
			b.reply(ctx, u.ConversationID, failure)
			return
		}
		b.reply(ctx, u.ConversationID, success)
	}
}

// forwardRequest relays an access request to the administrator's chat and,
// when configured, by email.
func (b *Bot) forwardRequest(ctx context.Context, u Update) {
	b.sessions.ClearState(ctx, u.ConversationID)

	body := strings.TrimSpace(u.Text)
	if b.cfg.AdminChatID != "" {
		b.reply(ctx, b.cfg.AdminChatID, relayText(u.UserID, u.ConversationID, body))
	} else {
		log.WithContext(ctx, b.logger).Warn().Msg("No admin chat configured, relay request not forwarded to chat")
	}
	if b.relay != nil {
		b.relay.NotifyRelayRequest(ctx, &notify.RelayRequest{
			UserID:         u.UserID,
			ConversationID: u.ConversationID,
			Text:           body,
			ReceivedAt:     u.ReceivedAt,
		})
	}
	b.reply(ctx, u.ConversationID, msgRequestSent)
}

package bot

import (
	"context"
	"time"

	"github.com/omriShneor/telcal/internal/intent"
	"github.com/omriShneor/telcal/internal/log"
	"github.com/omriShneor/telcal/internal/metrics"
)

// confirmEvent creates the staged event. The proposal is consumed whatever
// the outcome.
func (b *Bot) confirmEvent(ctx context.Context, u Update) {
	pending, ok := b.sessions.Pending(ctx, u.ConversationID)
	b.sessions.ClearPending(ctx, u.ConversationID)
	if !ok {
		b.reply(ctx, u.ConversationID, errCreatingEvent)
		return
	}

	ev, ok := intent.EventFromPending(pending.Text)
	if !ok {
		log.WithContext(ctx, b.logger).Error().Str("pending", pending.Text).Msg("Staged event no longer parses")
		b.reply(ctx, u.ConversationID, errCreatingEvent)
		return
	}

	owner := pending.UserID
	if owner == "" {
		owner = u.UserID
	}

	started := time.Now()
	err := b.calendar.CreateEvent(ctx, owner, ev)
	metrics.ObserveUpstream(metrics.BackendCalendar, started, err)
	if err != nil {
		b.logFailure(ctx, err, "Failed to create event")
		b.reply(ctx, u.ConversationID, calendarFailure(err, errCreatingEvent))
		return
	}
	b.reply(ctx, u.ConversationID, msgEventCreated)
}

func (b *Bot) cancelEvent(ctx context.Context, u Update) {
	b.sessions.ClearPending(ctx, u.ConversationID)
	b.sessions.ClearState(ctx, u.ConversationID)
	b.reply(ctx, u.ConversationID, msgOperationCanceled)
}

func (b *Bot) clearKeywords(ctx context.Context, u Update) {
	if err := b.profiles.ClearKeywords(ctx, u.UserID); err != nil {
		b.logFailure(ctx, err, "Failed to clear keywords")
		b.reply(ctx, u.ConversationID, errCleaningKeywords)
		return
	}
	b.reply(ctx, u.ConversationID, msgKeywordsCleaned)
}

// calendarFromButton stores the calendar picked from the choice keyboard.
// The payload must name the presser and the choice set must still be live.
func (b *Bot) calendarFromButton(ctx context.Context, u Update) {
	b.sessions.ClearState(ctx, u.ConversationID)
	payloadUser, index, parsed := parseCalendarPayload(u.Callback.Data)
	set, found := b.sessions.Choices(ctx, u.UserID)
	b.sessions.ClearChoices(ctx, u.UserID)

	if !parsed || payloadUser != u.UserID || !found {
		b.reply(ctx, u.ConversationID, errSavingCalendar)
		return
	}
	choice, ok := set.Lookup(index)
	if !ok {
		b.reply(ctx, u.ConversationID, errSavingCalendar)
		return
	}
	b.selectCalendar(ctx, u, choice.ID)
}

func (b *Bot) selectCalendar(ctx context.Context, u Update, calendarID string) {
	if err := b.calendar.SelectCalendar(ctx, u.UserID, calendarID); err != nil {
		b.logFailure(ctx, err, "Failed to save calendar")
		b.reply(ctx, u.ConversationID, errSavingCalendar)
		return
	}
	log.WithContext(ctx, b.logger).Info().Str("user_id", u.UserID).Str("calendar_id", calendarID).Msg("Calendar selected")
	b.reply(ctx, u.ConversationID, msgCalendarSuccess)
}

package bot

import (
	"context"
	"strings"

	"github.com/omriShneor/telcal/internal/log"
	"github.com/omriShneor/telcal/internal/session"
)

func (b *Bot) cmdStart(ctx context.Context, u Update, _ string) {
	b.requestAuthorization(ctx, u)
}

func (b *Bot) cmdHelp(ctx context.Context, u Update, _ string) {
	b.sessions.ClearState(ctx, u.ConversationID)
	b.reply(ctx, u.ConversationID, helpText)
}

func (b *Bot) cmdSearch(ctx context.Context, u Update, _ string) {
	b.awaitInput(session.AwaitingSearchInput, msgRequestSearch)(ctx, u)
}

func (b *Bot) cmdAnalytics(ctx context.Context, u Update, _ string) {
	b.awaitInput(session.AwaitingAnalyticsInput, msgRequestAnalytics)(ctx, u)
}

func (b *Bot) cmdSetting(ctx context.Context, u Update, _ string) {
	b.sessions.ClearState(ctx, u.ConversationID)
	b.send(ctx, settingsMessage(u.ConversationID))
}

// cmdReply answers a relayed access request: "/reply <chatId> ok|no|<text>".
func (b *Bot) cmdReply(ctx context.Context, u Update, args string) {
	chatID, answer, ok := strings.Cut(args, " ")
	answer = strings.TrimSpace(answer)
	if !ok || chatID == "" || answer == "" {
		b.reply(ctx, u.ConversationID, errIncorrectFormat)
		return
	}

	switch answer {
	case "ok":
		answer = msgAccessGranted
	case "no":
		answer = msgAccessDenied
	}
	b.reply(ctx, chatID, answer)
	log.WithContext(ctx, b.logger).Info().Str("target_chat", chatID).Msg("Relayed admin reply")
}

// awaitInput returns a handler that moves the conversation to state and
// prompts for the input it expects.
func (b *Bot) awaitInput(state session.State, prompt string) handlerFunc {
	return func(ctx context.Context, u Update) {
		b.sessions.SetState(ctx, u.ConversationID, state)
		b.reply(ctx, u.ConversationID, prompt)
	}
}

// requestAuthorization sends the consent link and waits for the code.
func (b *Bot) requestAuthorization(ctx context.Context, u Update) {
	url := b.calendar.AuthURL(u.UserID)
	if url == "" {
		b.sessions.ClearState(ctx, u.ConversationID)
		b.reply(ctx, u.ConversationID, errAuthorization)
		return
	}
	b.sessions.SetState(ctx, u.ConversationID, session.AwaitingAuthorizationCode)
	b.reply(ctx, u.ConversationID, msgFollowLink)
	b.reply(ctx, u.ConversationID, url)
}

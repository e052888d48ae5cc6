package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gotd/td/tg"

	"github.com/omriShneor/telcal/internal/bot"
	"github.com/omriShneor/telcal/internal/voice"
)

// updateFromMessage converts an incoming message. Messages without text or
// a voice attachment are dropped.
func updateFromMessage(msg *tg.Message) (bot.Update, bool) {
	if msg.Out {
		return bot.Update{}, false
	}
	conv, ok := conversationID(msg.PeerID)
	if !ok {
		return bot.Update{}, false
	}
	sender, ok := senderID(msg)
	if !ok {
		return bot.Update{}, false
	}

	u := bot.Update{
		ConversationID: conv,
		UserID:         sender,
		ReceivedAt:     time.Unix(int64(msg.Date), 0),
	}
	if ref, ok := voiceRef(msg.Media); ok {
		u.Voice = &ref
		return u, true
	}
	if strings.TrimSpace(msg.Message) == "" {
		return bot.Update{}, false
	}
	u.Text = msg.Message
	return u, true
}

// senderID is the author in groups and the peer itself in private chats.
func senderID(msg *tg.Message) (string, bool) {
	if from, ok := msg.GetFromID(); ok {
		if p, ok := from.(*tg.PeerUser); ok {
			return strconv.FormatInt(p.UserID, 10), true
		}
		return "", false
	}
	if p, ok := msg.PeerID.(*tg.PeerUser); ok {
		return strconv.FormatInt(p.UserID, 10), true
	}
	return "", false
}

// voiceRef extracts a voice note. Audio files that are not voice notes are
// ignored.
func voiceRef(media tg.MessageMediaClass) (voice.FileRef, bool) {
	m, ok := media.(*tg.MessageMediaDocument)
	if !ok {
		return voice.FileRef{}, false
	}
	doc, ok := m.Document.(*tg.Document)
	if !ok {
		return voice.FileRef{}, false
	}
	for _, attr := range doc.Attributes {
		if a, ok := attr.(*tg.DocumentAttributeAudio); ok && a.Voice {
			return voice.FileRef{
				ID:            doc.ID,
				AccessHash:    doc.AccessHash,
				FileReference: doc.FileReference,
				MimeType:      doc.MimeType,
				Size:          doc.Size,
			}, true
		}
	}
	return voice.FileRef{}, false
}

func updateFromCallback(q *tg.UpdateBotCallbackQuery) (bot.Update, bool) {
	conv, ok := conversationID(q.Peer)
	if !ok {
		return bot.Update{}, false
	}
	return bot.Update{
		ConversationID: conv,
		UserID:         strconv.FormatInt(q.UserID, 10),
		Callback: &bot.Callback{
			ID:   strconv.FormatInt(q.QueryID, 10),
			Data: string(q.Data),
		},
		ReceivedAt: time.Now(),
	}, true
}

// inlineMarkup renders keyboard rows as callback buttons.
func inlineMarkup(rows [][]bot.Button) *tg.ReplyInlineMarkup {
	markup := &tg.ReplyInlineMarkup{Rows: make([]tg.KeyboardButtonRow, len(rows))}
	for i, row := range rows {
		buttons := make([]tg.KeyboardButtonClass, len(row))
		for j, b := range row {
			buttons[j] = &tg.KeyboardButtonCallback{Text: b.Label, Data: []byte(b.Data)}
		}
		markup.Rows[i] = tg.KeyboardButtonRow{Buttons: buttons}
	}
	return markup
}

// displayName is used in log lines only.
func displayName(user *tg.User) string {
	if user.FirstName != "" {
		if user.LastName != "" {
			return user.FirstName + " " + user.LastName
		}
		return user.FirstName
	}
	if user.Username != "" {
		return "@" + user.Username
	}
	return fmt.Sprintf("User %d", user.ID)
}

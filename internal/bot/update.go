package bot

import (
	"context"
	"time"

	"github.com/omriShneor/telcal/internal/voice"
)

// Update is one inbound chat event. Exactly one of Text, Voice or Callback
// is set.
type Update struct {
	ConversationID string
	UserID         string
	Text           string
	Voice          *voice.FileRef
	Callback       *Callback
	ReceivedAt     time.Time
}

// Callback is an inline button press.
type Callback struct {
	ID   string
	Data string
}

// Kind labels the update for logs and metrics.
func (u Update) Kind() string {
	switch {
	case u.Callback != nil:
		return "callback"
	case u.Voice != nil:
		return "voice"
	default:
		return "text"
	}
}

// Button is one inline keyboard button.
type Button struct {
	Label string
	Data  string
}

// Message is an outbound message. Rows is the inline keyboard, top to
// bottom; nil sends plain text.
type Message struct {
	ConversationID string
	Text           string
	Rows           [][]Button
}

// Transport delivers outbound messages.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

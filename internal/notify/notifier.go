package notify

import (
	"context"
	"time"
)

// RelayRequest is a user message forwarded to the bot administrator.
type RelayRequest struct {
	UserID         string
	ConversationID string
	Text           string
	ReceivedAt     time.Time
}

// Notifier delivers relay requests to a specific recipient
type Notifier interface {
	// Send delivers the request to the recipient
	Send(ctx context.Context, req *RelayRequest, recipient string) error
	// Name returns the notifier type name (for logging)
	Name() string
	// IsConfigured returns true if the notifier has server-side config
	IsConfigured() bool
}

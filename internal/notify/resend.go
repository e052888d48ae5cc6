package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/resend/resend-go/v2"
)

// ResendNotifier sends email copies of relay requests via Resend API
type ResendNotifier struct {
	client      *resend.Client
	fromAddress string
}

// NewResendNotifier creates a new Resend email notifier. It returns nil
// when no API key is configured.
func NewResendNotifier(apiKey, from string) *ResendNotifier {
	if apiKey == "" {
		return nil
	}
	return &ResendNotifier{
		client:      resend.NewClient(apiKey),
		fromAddress: from,
	}
}

// IsConfigured returns true if the notifier has server-side config
func (r *ResendNotifier) IsConfigured() bool {
	return r != nil && r.client != nil && r.fromAddress != ""
}

func (r *ResendNotifier) Send(ctx context.Context, req *RelayRequest, recipient string) error {
	if recipient == "" {
		return fmt.Errorf("no recipient specified")
	}

	params := &resend.SendEmailRequest{
		From:    r.fromAddress,
		To:      []string{recipient},
		Subject: fmt.Sprintf("New request from user %s", req.UserID),
		Html:    formatRelayHTML(req),
	}

	if _, err := r.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}
	return nil
}

func (r *ResendNotifier) Name() string {
	return "resend"
}

func formatRelayHTML(req *RelayRequest) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="margin: 0 0 16px 0; color: #333;">New request</h2>
  <div style="background: #f8f9fa; padding: 16px; border-radius: 8px; border-left: 4px solid #007bff;">
    <p style="margin: 8px 0;"><strong>User id:</strong> %s</p>
    <p style="margin: 8px 0;"><strong>Chat id:</strong> %s</p>
    <p style="margin: 16px 0; white-space: pre-wrap;">%s</p>
  </div>
  <p style="color: #999; font-size: 12px; margin-top: 16px;">
    Answer in the bot with <code>/reply %s ok|no|&lt;text&gt;</code><br>
    <span style="color: #ccc;">Received at %s</span>
  </p>
</body>
</html>`,
		html.EscapeString(req.UserID),
		html.EscapeString(req.ConversationID),
		html.EscapeString(req.Text),
		html.EscapeString(req.ConversationID),
		req.ReceivedAt.Format("Jan 2, 2006 3:04 PM"),
	)
}

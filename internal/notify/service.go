package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/omriShneor/telcal/internal/log"
)

// Service delivers out-of-band copies of relay requests to the administrator.
// Delivery failures are logged and never fail the chat flow.
type Service struct {
	emailNotifier Notifier
	adminEmail    string
	logger        zerolog.Logger
}

func NewService(emailNotifier Notifier, adminEmail string) *Service {
	return &Service{
		emailNotifier: emailNotifier,
		adminEmail:    adminEmail,
		logger:        log.WithComponent("notify"),
	}
}

// NotifyRelayRequest emails the request to the administrator when email is
// available.
func (s *Service) NotifyRelayRequest(ctx context.Context, req *RelayRequest) {
	if !s.IsEmailAvailable() {
		return
	}

	logger := log.WithContext(ctx, s.logger)
	if err := s.emailNotifier.Send(ctx, req, s.adminEmail); err != nil {
		logger.Warn().Err(err).Str("notifier", s.emailNotifier.Name()).Msg("relay email failed")
		return
	}
	logger.Info().Str("notifier", s.emailNotifier.Name()).Str("user_id", req.UserID).Msg("relay email sent")
}

// IsEmailAvailable returns true if relay requests can be emailed
func (s *Service) IsEmailAvailable() bool {
	if s == nil || s.adminEmail == "" || s.emailNotifier == nil {
		return false
	}
	// A typed nil *ResendNotifier still satisfies the interface.
	if r, ok := s.emailNotifier.(*ResendNotifier); ok && r == nil {
		return false
	}
	return s.emailNotifier.IsConfigured()
}

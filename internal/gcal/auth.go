package gcal

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// ErrNoRefreshToken means the stored credential cannot be renewed and the
// user has to authorize again.
var ErrNoRefreshToken = errors.New("no refresh token available")

// OAuthScopes contains only Calendar scopes
var OAuthScopes = []string{
	calendar.CalendarScope,
}

// OAuth holds the application's client id/secret and performs the per-user
// consent, exchange and refresh steps. Tokens belong to the caller; OAuth
// stores none.
type OAuth struct {
	config *oauth2.Config
}

// NewOAuth loads the client credentials file. A missing or malformed file is
// a startup error.
func NewOAuth(credentialsFile, redirectURL string) (*OAuth, error) {
	config, err := loadConfigFromFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth config: %w", err)
	}
	config.RedirectURL = redirectURL
	return &OAuth{config: config}, nil
}

// NewOAuthFromConfig wraps an already built config.
func NewOAuthFromConfig(config *oauth2.Config) *OAuth {
	return &OAuth{config: config}
}

// AuthURL returns the consent URL. Offline access with forced approval makes
// Google return a refresh token on every consent.
func (o *OAuth) AuthURL(state string) string {
	return o.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token.
func (o *OAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := o.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	return token, nil
}

// Refresh obtains a new access token. The refresh token is carried over when
// the token endpoint does not rotate it.
func (o *OAuth) Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	if token == nil || token.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	stale := &oauth2.Token{RefreshToken: token.RefreshToken}
	fresh, err := o.config.TokenSource(ctx, stale).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = token.RefreshToken
	}
	return fresh, nil
}

// Calendar returns a Calendar API client acting with token.
func (o *OAuth) Calendar(ctx context.Context, token *oauth2.Token) (*Client, error) {
	if token == nil {
		return nil, fmt.Errorf("no token available")
	}
	return NewClient(ctx, option.WithHTTPClient(o.config.Client(ctx, token)))
}

// loadConfigFromFile attempts to load OAuth config from a file
func loadConfigFromFile(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return google.ConfigFromJSON(data, OAuthScopes...)
}

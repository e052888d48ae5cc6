package database

import (
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// UserProfile is the durable per-user state: OAuth credential, selected
// calendar and keyword preferences. Keyword fields hold the text exactly as
// the user entered it.
type UserProfile struct {
	UserID           string
	CalendarID       string
	Token            *oauth2.Token // nil until the user has authorized
	Keywords         string
	DefaultKeyword   string
	CompoundKeywords string
	UpdatedAt        time.Time
}

// HasCredential reports whether a refreshable OAuth credential is stored.
func (p *UserProfile) HasCredential() bool {
	return p != nil && p.Token != nil && (p.Token.AccessToken != "" || p.Token.RefreshToken != "")
}

// ProfileField names a user-editable text column.
type ProfileField string

const (
	FieldCalendar         ProfileField = "calendar_id"
	FieldKeywords         ProfileField = "keywords"
	FieldDefaultKeyword   ProfileField = "default_keyword"
	FieldCompoundKeywords ProfileField = "compound_keywords"
)

func (f ProfileField) valid() bool {
	switch f {
	case FieldCalendar, FieldKeywords, FieldDefaultKeyword, FieldCompoundKeywords:
		return true
	}
	return false
}

// GetUserProfile returns the profile for userID, or nil if none is stored.
func (d *DB) GetUserProfile(userID string) (*UserProfile, error) {
	var (
		profile         UserProfile
		accessTokenEnc  []byte
		refreshTokenEnc []byte
		tokenType       string
		expiry          sql.NullTime
		updatedAt       sql.NullTime
	)

	err := d.QueryRow(`
		SELECT user_id, calendar_id, access_token_encrypted, refresh_token_encrypted,
			token_type, expiry, keywords, default_keyword, compound_keywords, updated_at
		FROM user_profiles WHERE user_id = ?
	`, userID).Scan(
		&profile.UserID, &profile.CalendarID, &accessTokenEnc, &refreshTokenEnc,
		&tokenType, &expiry, &profile.Keywords, &profile.DefaultKeyword,
		&profile.CompoundKeywords, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	accessToken, err := d.cipher.decrypt(accessTokenEnc)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	refreshToken, err := d.cipher.decrypt(refreshTokenEnc)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	if accessToken != "" || refreshToken != "" {
		profile.Token = &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    tokenType,
		}
		if expiry.Valid {
			profile.Token.Expiry = expiry.Time
		}
	}
	if updatedAt.Valid {
		profile.UpdatedAt = updatedAt.Time
	}

	return &profile, nil
}

// SaveUserToken stores the OAuth credential for userID (upsert). A refresh
// response without a refresh token keeps the previously stored one.
func (d *DB) SaveUserToken(userID string, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("token is required")
	}

	accessTokenEnc, err := d.cipher.encrypt(token.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	refreshTokenEnc, err := d.cipher.encrypt(token.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	var expiry *time.Time
	if !token.Expiry.IsZero() {
		expiry = &token.Expiry
	}

	_, err = d.Exec(`
		INSERT INTO user_profiles (user_id, access_token_encrypted, refresh_token_encrypted, token_type, expiry, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			access_token_encrypted = excluded.access_token_encrypted,
			refresh_token_encrypted = COALESCE(excluded.refresh_token_encrypted, user_profiles.refresh_token_encrypted),
			token_type = excluded.token_type,
			expiry = excluded.expiry,
			updated_at = CURRENT_TIMESTAMP
	`, userID, accessTokenEnc, refreshTokenEnc, token.TokenType, expiry)
	if err != nil {
		return fmt.Errorf("failed to save user token: %w", err)
	}

	return nil
}

// SaveUserField sets one text field of the profile (upsert).
func (d *DB) SaveUserField(userID string, field ProfileField, value string) error {
	if !field.valid() {
		return fmt.Errorf("unknown profile field: %s", field)
	}

	query := fmt.Sprintf(`
		INSERT INTO user_profiles (user_id, %[1]s, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			%[1]s = excluded.%[1]s,
			updated_at = CURRENT_TIMESTAMP
	`, field)

	if _, err := d.Exec(query, userID, value); err != nil {
		return fmt.Errorf("failed to save %s: %w", field, err)
	}
	return nil
}

// ClearUserKeywords empties keywords, default keyword and compound keywords
// in a single statement.
func (d *DB) ClearUserKeywords(userID string) error {
	_, err := d.Exec(`
		INSERT INTO user_profiles (user_id, updated_at)
		VALUES (?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			keywords = '',
			default_keyword = '',
			compound_keywords = '',
			updated_at = CURRENT_TIMESTAMP
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear keywords: %w", err)
	}
	return nil
}

// Package profile keeps a short-lived read-through cache in front of the
// durable user profiles. The cache is written only after the database write
// succeeds.
package profile

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/omriShneor/telcal/internal/cache"
	"github.com/omriShneor/telcal/internal/database"
)

// Repository is the durable profile storage.
type Repository interface {
	GetUserProfile(userID string) (*database.UserProfile, error)
	SaveUserToken(userID string, token *oauth2.Token) error
	SaveUserField(userID string, field database.ProfileField, value string) error
	ClearUserKeywords(userID string) error
}

type Store struct {
	repo  Repository
	cache cache.Store[database.UserProfile]
}

func NewStore(repo Repository, c cache.Store[database.UserProfile]) *Store {
	return &Store{repo: repo, cache: c}
}

// Get returns the profile for userID, or nil if the user has none.
func (s *Store) Get(ctx context.Context, userID string) (*database.UserProfile, error) {
	if p, ok := s.cache.Get(ctx, userID); ok {
		return &p, nil
	}

	p, err := s.repo.GetUserProfile(userID)
	if err != nil || p == nil {
		return nil, err
	}

	s.cache.Set(ctx, userID, *p)
	return p, nil
}

// SaveToken persists an OAuth credential. A token without a refresh token
// keeps the stored one, in the cache as well as on disk.
func (s *Store) SaveToken(ctx context.Context, userID string, token *oauth2.Token) error {
	if err := s.repo.SaveUserToken(userID, token); err != nil {
		return err
	}

	s.update(ctx, userID, func(p *database.UserProfile) {
		updated := *token
		if updated.RefreshToken == "" && p.Token != nil {
			updated.RefreshToken = p.Token.RefreshToken
		}
		p.Token = &updated
	})
	return nil
}

func (s *Store) SaveCalendar(ctx context.Context, userID, calendarID string) error {
	return s.saveField(ctx, userID, database.FieldCalendar, calendarID)
}

func (s *Store) SaveKeywords(ctx context.Context, userID, keywords string) error {
	return s.saveField(ctx, userID, database.FieldKeywords, keywords)
}

func (s *Store) SaveDefaultKeyword(ctx context.Context, userID, keyword string) error {
	return s.saveField(ctx, userID, database.FieldDefaultKeyword, keyword)
}

func (s *Store) SaveCompoundKeywords(ctx context.Context, userID, phrases string) error {
	return s.saveField(ctx, userID, database.FieldCompoundKeywords, phrases)
}

// ClearKeywords empties all three keyword fields.
func (s *Store) ClearKeywords(ctx context.Context, userID string) error {
	if err := s.repo.ClearUserKeywords(userID); err != nil {
		return err
	}

	s.update(ctx, userID, func(p *database.UserProfile) {
		p.Keywords = ""
		p.DefaultKeyword = ""
		p.CompoundKeywords = ""
	})
	return nil
}

func (s *Store) saveField(ctx context.Context, userID string, field database.ProfileField, value string) error {
	if err := s.repo.SaveUserField(userID, field, value); err != nil {
		return err
	}

	s.update(ctx, userID, func(p *database.UserProfile) {
		switch field {
		case database.FieldCalendar:
			p.CalendarID = value
		case database.FieldKeywords:
			p.Keywords = value
		case database.FieldDefaultKeyword:
			p.DefaultKeyword = value
		case database.FieldCompoundKeywords:
			p.CompoundKeywords = value
		}
	})
	return nil
}

// update applies fn to a cached profile. An uncached profile is left to the
// next read-through.
func (s *Store) update(ctx context.Context, userID string, fn func(*database.UserProfile)) {
	p, ok := s.cache.Get(ctx, userID)
	if !ok {
		return
	}
	fn(&p)
	s.cache.Set(ctx, userID, p)
}

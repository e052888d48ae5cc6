package mocks

import (
	"github.com/stretchr/testify/mock"
	"golang.org/x/oauth2"

	"github.com/omriShneor/telcal/internal/database"
)

// MockProfileRepository is a mock implementation of the profile storage
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetUserProfile(userID string) (*database.UserProfile, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.UserProfile), args.Error(1)
}

func (m *MockProfileRepository) SaveUserToken(userID string, token *oauth2.Token) error {
	args := m.Called(userID, token)
	return args.Error(0)
}

func (m *MockProfileRepository) SaveUserField(userID string, field database.ProfileField, value string) error {
	args := m.Called(userID, field, value)
	return args.Error(0)
}

func (m *MockProfileRepository) ClearUserKeywords(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/omriShneor/telcal/internal/notify"
)

// MockRelayNotifier is a mock implementation of the relay notification service
type MockRelayNotifier struct {
	mock.Mock
}

func (m *MockRelayNotifier) NotifyRelayRequest(ctx context.Context, req *notify.RelayRequest) {
	m.Called(ctx, req)
}

func (m *MockRelayNotifier) IsEmailAvailable() bool {
	args := m.Called()
	return args.Bool(0)
}

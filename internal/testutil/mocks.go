package testutil

import (
	"dreambot/internal/backend"
	"dreambot/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockSessionRepository is a mock for repository.SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Load(userID int64) (*domain.Session, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) Save(userID int64, session *domain.Session) error {
	args := m.Called(userID, session)
	return args.Error(0)
}

// MockBackendClient is a mock for backend.Client
type MockBackendClient struct {
	mock.Mock
}

func (m *MockBackendClient) Login(email, password string) (string, error) {
	args := m.Called(email, password)
	return args.String(0), args.Error(1)
}

func (m *MockBackendClient) Register(username, email, password, birthISO string) (string, error) {
	args := m.Called(username, email, password, birthISO)
	return args.String(0), args.Error(1)
}

func (m *MockBackendClient) GetLimits(token string) (*backend.Limits, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.Limits), args.Error(1)
}

func (m *MockBackendClient) GetSubscriptionStatus(token string) (*backend.SubscriptionStatus, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.SubscriptionStatus), args.Error(1)
}

func (m *MockBackendClient) ClearContext(token string, keepWelcome bool) error {
	args := m.Called(token, keepWelcome)
	return args.Error(0)
}

func (m *MockBackendClient) SendMessage(token, message string) (*backend.ChatResponse, error) {
	args := m.Called(token, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.ChatResponse), args.Error(1)
}

func (m *MockBackendClient) CreatePayment(token string, amount int, description string) (string, error) {
	args := m.Called(token, amount, description)
	return args.String(0), args.Error(1)
}

func (m *MockBackendClient) ConfirmMockPayment(token, paymentID string) error {
	args := m.Called(token, paymentID)
	return args.Error(0)
}

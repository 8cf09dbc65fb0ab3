package testutil

import (
	"dreambot/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewMenuSession creates an authenticated session sitting in the menu
func NewMenuSession(token string) *domain.Session {
	return &domain.Session{
		State:    domain.StateMenu,
		Mode:     domain.ModeText,
		Name:     "Анна",
		Birth:    "15.06.1990",
		Email:    "a@b.com",
		Password: "pw1",
		Token:    token,
	}
}

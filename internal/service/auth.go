package service

import (
	"errors"
	"fmt"
	"strings"

	"dreambot/internal/backend"
	"dreambot/internal/domain"
	"dreambot/internal/repository"

	"go.uber.org/zap"
)

var (
	// ErrMissingCredentials means the session has not collected email
	// and password yet, so no backend call can succeed.
	ErrMissingCredentials = errors.New("session has no email or password")

	// ErrAuthFailed means the backend rejected both login and the
	// register-then-login retry. Callers treat this as a temporary
	// service condition, never a fatal one.
	ErrAuthFailed = errors.New("backend rejected login and registration")
)

const defaultBirthISO = "2000-01-01"

// AuthService guarantees a session carries a valid backend token,
// obtaining one through the login/register retry policy when needed.
type AuthService struct {
	sessions repository.SessionRepository
	backend  backend.Client
	logger   *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(sessions repository.SessionRepository, client backend.Client, logger *zap.Logger) *AuthService {
	return &AuthService{
		sessions: sessions,
		backend:  client,
		logger:   logger,
	}
}

// EnsureToken returns the session's backend token, obtaining one if
// absent. A token already present is returned without any network call
// and without a validity check; a rejected token is recovered by the
// caller clearing it and re-invoking this.
func (s *AuthService) EnsureToken(userID int64, session *domain.Session) (string, error) {
	if session.Token != "" {
		return session.Token, nil
	}

	if !session.Registered() {
		s.logger.Warn("No email/password for user", zap.Int64("user_id", userID))
		return "", ErrMissingCredentials
	}

	token, err := s.backend.Login(session.Email, session.Password)
	if err != nil {
		// Maybe the account does not exist yet. Register (tolerating
		// "already exists") and try logging in once more.
		s.logger.Warn("Login failed, retrying via registration",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		if _, regErr := s.backend.Register(s.username(userID, session), session.Email, session.Password, BirthToISO(session.Birth)); regErr != nil {
			s.logger.Warn("Registration attempt failed", zap.Error(regErr))
		}
		token, err = s.backend.Login(session.Email, session.Password)
	}

	if err != nil || token == "" {
		s.logger.Error("Unable to obtain token", zap.Int64("user_id", userID))
		return "", ErrAuthFailed
	}

	session.Token = token
	if err := s.sessions.Save(userID, session); err != nil {
		// The token still works for this turn; losing it only costs a
		// re-login later.
		s.logger.Error("Failed to persist token", zap.Int64("user_id", userID), zap.Error(err))
	}

	return token, nil
}

// CompleteRegistration is the register-then-login variant used right
// after the password step: registration always runs first ("already
// registered" is tolerated), then login, and on success the session
// moves to the menu state.
func (s *AuthService) CompleteRegistration(userID int64, session *domain.Session) (string, error) {
	if !session.Registered() {
		return "", ErrMissingCredentials
	}

	if _, err := s.backend.Register(s.username(userID, session), session.Email, session.Password, BirthToISO(session.Birth)); err != nil {
		s.logger.Warn("Registration attempt failed, trying login anyway",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}

	token, err := s.backend.Login(session.Email, session.Password)
	if err != nil || token == "" {
		s.logger.Error("Registration did not produce a token", zap.Int64("user_id", userID))
		return "", ErrAuthFailed
	}

	session.Token = token
	session.State = domain.StateMenu
	if err := s.sessions.Save(userID, session); err != nil {
		return "", fmt.Errorf("persist registered session: %w", err)
	}

	s.logger.Info("Registration completed", zap.Int64("user_id", userID))
	return token, nil
}

func (s *AuthService) username(userID int64, session *domain.Session) string {
	if session.Name != "" {
		return session.Name
	}
	return fmt.Sprintf("user_%d", userID)
}

// BirthToISO converts a DD.MM.YYYY birth date to the backend's
// YYYY-MM-DD. Anything not splittable into exactly three dot-separated
// parts is silently replaced by the default — the original record keeps
// whatever the user typed.
func BirthToISO(birth string) string {
	parts := strings.Split(birth, ".")
	if len(parts) != 3 {
		return defaultBirthISO
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}

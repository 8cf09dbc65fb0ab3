package repository

import (
	"dreambot/internal/domain"
)

// SessionRepository defines durable storage of one session record per
// Telegram user id. Load returns (nil, nil) for an unknown user; Save
// rewrites the whole record.
type SessionRepository interface {
	Load(userID int64) (*domain.Session, error)
	Save(userID int64, session *domain.Session) error
}

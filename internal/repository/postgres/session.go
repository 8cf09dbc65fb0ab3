package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"dreambot/internal/domain"
)

// SessionRepo implements repository.SessionRepository on top of a
// sessions table holding the full JSON document per user.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo creates a new session repository
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Load reads the session document for a user. Returns (nil, nil) if the
// user has no record yet. Unknown persisted state values are normalized.
func (r *SessionRepo) Load(userID int64) (*domain.Session, error) {
	var data []byte
	query := `SELECT data FROM sessions WHERE user_id = $1`
	err := r.db.QueryRow(query, userID).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %d: %w", userID, err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %d: %w", userID, err)
	}

	s.Normalize()
	return &s, nil
}

// Save rewrites the full session document
func (r *SessionRepo) Save(userID int64, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %d: %w", userID, err)
	}

	query := `
		INSERT INTO sessions (user_id, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`
	if _, err := r.db.Exec(query, userID, data); err != nil {
		return fmt.Errorf("save session %d: %w", userID, err)
	}
	return nil
}

package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"dreambot/internal/domain"
)

// SessionRepo implements repository.SessionRepository on top of one
// human-readable JSON file per user under dir.
type SessionRepo struct {
	dir string
}

// NewSessionRepo creates the sessions directory if needed
func NewSessionRepo(dir string) (*SessionRepo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	return &SessionRepo{dir: dir}, nil
}

func (r *SessionRepo) path(userID int64) string {
	return filepath.Join(r.dir, fmt.Sprintf("%d.json", userID))
}

// Load reads the session record for a user. Returns (nil, nil) if the
// user has no record yet. Unknown persisted state values are normalized.
func (r *SessionRepo) Load(userID int64) (*domain.Session, error) {
	data, err := os.ReadFile(r.path(userID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session %d: %w", userID, err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %d: %w", userID, err)
	}

	s.Normalize()
	return &s, nil
}

// Save rewrites the full session record
func (r *SessionRepo) Save(userID int64, session *domain.Session) error {
	data, err := json.MarshalIndent(session, "", "    ")
	if err != nil {
		return fmt.Errorf("encode session %d: %w", userID, err)
	}

	if err := os.WriteFile(r.path(userID), data, 0o644); err != nil {
		return fmt.Errorf("write session %d: %w", userID, err)
	}
	return nil
}

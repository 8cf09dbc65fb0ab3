package service

import (
	"sync"
	"time"

	"dreambot/internal/backend"

	"go.uber.org/zap"
)

// idleTimeout is how long a user may stay silent before their backend
// conversational context is considered stale.
const idleTimeout = 60 * time.Second

// ActivityMonitor tracks last-activity timestamps per user in process
// memory and clears backend conversational context after an idle gap.
// Entries live for the process lifetime, bounded by distinct user count.
type ActivityMonitor struct {
	backend backend.Client
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	lastSeen map[int64]time.Time
}

// NewActivityMonitor creates a monitor using the wall clock
func NewActivityMonitor(client backend.Client, logger *zap.Logger) *ActivityMonitor {
	return &ActivityMonitor{
		backend:  client,
		logger:   logger,
		now:      time.Now,
		lastSeen: make(map[int64]time.Time),
	}
}

// MaybeClearContext clears the user's backend context if more than the
// idle timeout passed since their previous interaction, keeping the
// welcome segment. The activity timestamp is always advanced. Clear
// failures are logged and swallowed; they never block the chat turn.
// No-op without a token.
func (m *ActivityMonitor) MaybeClearContext(userID int64, token string) {
	if token == "" {
		return
	}

	now := m.now()

	m.mu.Lock()
	last, seen := m.lastSeen[userID]
	m.lastSeen[userID] = now
	m.mu.Unlock()

	if !seen || now.Sub(last) <= idleTimeout {
		return
	}

	if err := m.backend.ClearContext(token, true); err != nil {
		m.logger.Warn("Context clear failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return
	}

	m.logger.Info("Idle context cleared",
		zap.Int64("user_id", userID),
		zap.Duration("idle", now.Sub(last)),
	)
}

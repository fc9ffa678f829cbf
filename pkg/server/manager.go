package server

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// SessionManager tracks the server's live sessions.
type SessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	// Zero means unlimited.
	maxSessions int

	totalCreated atomic.Uint64
	totalClosed  atomic.Uint64
	peakSessions int

	onSessionClose func(*Session)

	logger *slog.Logger
}

// NewSessionManager creates a manager admitting at most maxSessions
// concurrent sessions.
func NewSessionManager(maxSessions int, logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		logger:      logger.With("component", "sessions"),
	}
}

// Add tracks s. It returns ErrMaxSessionsReached when the manager is full.
func (sm *SessionManager) Add(s *Session) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.maxSessions > 0 && len(sm.sessions) >= sm.maxSessions {
		return ErrMaxSessionsReached
	}
	sm.sessions[s.ID] = s
	sm.totalCreated.Add(1)
	if len(sm.sessions) > sm.peakSessions {
		sm.peakSessions = len(sm.sessions)
	}
	return nil
}

// Remove stops tracking the session with id and closes it.
func (sm *SessionManager) Remove(id string) {
	sm.mu.Lock()
	s, ok := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mu.Unlock()

	if !ok {
		return
	}
	s.Close()
	sm.totalClosed.Add(1)
	if sm.onSessionClose != nil {
		sm.onSessionClose(s)
	}
	sm.logger.Debug("session removed",
		"session_id", id,
		"active_sessions", sm.Count())
}

// Get retrieves a session by ID.
func (sm *SessionManager) Get(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// Count returns the number of active sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ForEach iterates over all sessions until fn returns false.
// The callback should not perform long-running operations as it holds the read lock.
func (sm *SessionManager) ForEach(fn func(*Session) bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, s := range sm.sessions {
		if !fn(s) {
			break
		}
	}
}

// Snapshot returns the active sessions.
func (sm *SessionManager) Snapshot() []*Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	out := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		out = append(out, s)
	}
	return out
}

// SetOnSessionClose sets the callback run after a session is removed.
func (sm *SessionManager) SetOnSessionClose(fn func(*Session)) {
	sm.onSessionClose = fn
}

// Shutdown closes every session.
func (sm *SessionManager) Shutdown() {
	sm.mu.Lock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	sm.logger.Info("session manager shutdown", "closed_sessions", len(sessions))
}

// Stats returns aggregated session statistics.
func (sm *SessionManager) Stats() ManagerStats {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return ManagerStats{
		Active:       len(sm.sessions),
		TotalCreated: sm.totalCreated.Load(),
		TotalClosed:  sm.totalClosed.Load(),
		Peak:         sm.peakSessions,
	}
}

// ManagerStats contains aggregated session manager statistics.
type ManagerStats struct {
	Active       int    `json:"active"`
	TotalCreated uint64 `json:"total_created"`
	TotalClosed  uint64 `json:"total_closed"`
	Peak         int    `json:"peak"`
}

// Package live serves websocket view sessions: interactive render and
// sync over a persistent connection.
package live

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session holds per-connection state: which views the client has rendered,
// for change-aware follow-ups.
type Session struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`

	mu       sync.Mutex
	rendered map[string]string // view id -> last entity URL rendered
}

// NewSession creates a session.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.New().String(),
		CreatedAt:    now,
		LastActiveAt: now,
		rendered:     make(map[string]string),
	}
}

// Touch updates the last activity timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	s.LastActiveAt = time.Now()
	s.mu.Unlock()
}

// TrackRender records the last entity a view was rendered for.
func (s *Session) TrackRender(viewID, entityURL string) {
	s.mu.Lock()
	s.rendered[viewID] = entityURL
	s.LastActiveAt = time.Now()
	s.mu.Unlock()
}

// LastEntity returns the entity URL a view was last rendered for.
func (s *Session) LastEntity(viewID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	url, ok := s.rendered[viewID]
	return url, ok
}

// IsIdle reports whether the session has been inactive longer than the
// timeout.
func (s *Session) IsIdle(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.LastActiveAt) > timeout
}

// Manager handles session creation, lookup, and idle cleanup.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	idleTimeout time.Duration
}

// NewManager creates a session manager with the given idle timeout.
func NewManager(idleTimeout time.Duration) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		idleTimeout: idleTimeout,
	}
}

// Create creates and registers a new session.
func (m *Manager) Create() *Session {
	s := NewSession()
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get retrieves a session by id. Returns nil if unknown or idle-expired.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if s.IsIdle(m.idleTimeout) {
		m.Remove(id)
		return nil
	}
	return s
}

// Remove deletes a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Cleanup removes every idle session. Called periodically.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.IsIdle(m.idleTimeout) {
			delete(m.sessions, id)
		}
	}
}

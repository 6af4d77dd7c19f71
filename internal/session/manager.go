package session

import (
	"sync"
	"time"
)

// Manager owns the live sessions of this process. The state machine per session
// is Anonymous → Authenticated(identity), with an explicit End for logout.
// All methods are safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewManager returns a Manager whose sessions expire ttl after creation.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Begin starts a new anonymous session and returns a snapshot of it.
func (m *Manager) Begin() (*Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}
	s := &Session{id: id, expiresAt: m.now().Add(m.ttl)}
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	snap := *s
	return &snap, nil
}

// Authenticate transitions the session with the given id to
// Authenticated(identity) and returns the updated snapshot. It is the only way
// a session acquires an actor; callers invoke it exclusively after a successful
// credential check. Returns ErrNotAuthenticated if the session is unknown or
// expired.
func (m *Manager) Authenticate(id, identity string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || m.now().After(s.expiresAt) {
		delete(m.sessions, id)
		return nil, ErrNotAuthenticated
	}
	s.identity = identity
	snap := *s
	return &snap, nil
}

// Lookup returns a snapshot of the session with the given id, or false if it is
// unknown or expired. Expired sessions are dropped on access.
func (m *Manager) Lookup(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	if m.now().After(s.expiresAt) {
		delete(m.sessions, id)
		return nil, false
	}
	snap := *s
	return &snap, true
}

// End removes the session (logout). Ending an unknown id is a no-op.
func (m *Manager) End(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

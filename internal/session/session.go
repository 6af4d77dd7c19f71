// Package session tracks per-connection authentication state. Sessions are
// in-process values: they are not persisted, not shared across instances, and
// do not survive a restart.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNotAuthenticated is returned when an operation needs an actor and the
// session is still anonymous (or missing/expired).
var ErrNotAuthenticated = errors.New("not authenticated")

// Session is the authentication state of one connection. It starts anonymous
// and becomes authenticated only through a successful login. Values are
// immutable snapshots; the Manager owns the live state.
type Session struct {
	id        string
	identity  string
	expiresAt time.Time
}

// ID is the opaque session identifier handed to the client.
func (s *Session) ID() string { return s.id }

// Authenticated reports whether the session is bound to an identity.
func (s *Session) Authenticated() bool { return s != nil && s.identity != "" }

// Actor returns the owning identity's name, or ErrNotAuthenticated while the
// session is anonymous.
func (s *Session) Actor() (string, error) {
	if !s.Authenticated() {
		return "", ErrNotAuthenticated
	}
	return s.identity, nil
}

// ExpiresAt is when the session stops being honored.
func (s *Session) ExpiresAt() time.Time { return s.expiresAt }

func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

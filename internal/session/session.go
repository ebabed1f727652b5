// Package session carries the authenticated user as an explicit capability
// rather than ambient global state. A Session is created at login, passed to
// the components that stamp outgoing messages or announce presence, and
// cleared at logout.
package session

import (
	"sync"

	"github.com/LuckyLyon/Vibe-your-mind/internal/models"
)

// Session holds the current user for one login lifecycle. The zero value is
// a logged-out session.
type Session struct {
	mu   sync.RWMutex
	user *models.User
}

// New creates a session. user may be nil for an anonymous session.
func New(user *models.User) *Session {
	return &Session{user: user}
}

// Login installs the authenticated user.
func (s *Session) Login(user *models.User) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
}

// Logout clears the session.
func (s *Session) Logout() {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}

// CurrentUser returns the authenticated user, or nil when logged out.
func (s *Session) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Authenticated reports whether a user is logged in.
func (s *Session) Authenticated() bool {
	return s.CurrentUser() != nil
}

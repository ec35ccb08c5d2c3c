package web

import (
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sharewatch-cli/internal/cache"
)

// Session is one signed-in dashboard user.
type Session struct {
	Email string
	Name  string
}

// SessionStore maps opaque session IDs to signed-in users. Entries
// expire after the store's TTL; there is no sliding renewal.
type SessionStore struct {
	entries *cache.TTL
}

// NewSessionStore creates a store with the given session lifetime.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{entries: cache.NewTTL(ttl)}
}

// Create registers a session and returns its ID.
func (s *SessionStore) Create(email, name string) string {
	sid := uuid.NewString()
	s.entries.Set(sid, Session{Email: email, Name: name})
	return sid
}

// Get returns the session for sid, or false when absent or expired.
func (s *SessionStore) Get(sid string) (Session, bool) {
	v, ok := s.entries.Get(sid)
	if !ok {
		return Session{}, false
	}
	return v.(Session), true
}

// Delete removes a session, if present.
func (s *SessionStore) Delete(sid string) {
	s.entries.Delete(sid)
}

package conversation

import (
	"sync"
	"time"
)

// Stage is the step of the submission dialog a user is in
type Stage int

const (
	// Idle means the user has no open submission
	Idle Stage = iota
	AwaitingPhoto
	AwaitingTitle
	AwaitingDescription
)

// String returns a human-readable stage name.
func (s Stage) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingPhoto:
		return "awaiting_photo"
	case AwaitingTitle:
		return "awaiting_title"
	case AwaitingDescription:
		return "awaiting_description"
	default:
		return "unknown"
	}
}

// Session is the in-progress submission of one user
type Session struct {
	UserID    string
	ChatID    string
	Stage     Stage
	PhotoID   string
	PhotoURL  string
	Title     string
	StartedAt time.Time
}

// Expired reports whether the session is older than timeout at now
func (s *Session) Expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.StartedAt) > timeout
}

// SessionStore holds open sessions keyed by user id. Sessions are lost on
// restart. Safe for concurrent use.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

// NewSessionStore creates an empty store
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]Session)}
}

// Get returns a copy of the session for userID
func (s *SessionStore) Get(userID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// Insert stores sess unless the user already has one
func (s *SessionStore) Insert(sess Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.UserID]; ok {
		return false
	}
	s.sessions[sess.UserID] = sess
	return true
}

// Update replaces an existing session; it does nothing if the session was
// removed in the meantime
func (s *SessionStore) Update(sess Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.UserID]; !ok {
		return false
	}
	s.sessions[sess.UserID] = sess
	return true
}

// Delete removes the session for userID and reports whether there was one
func (s *SessionStore) Delete(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[userID]
	delete(s.sessions, userID)
	return ok
}

// Len returns the number of open sessions
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// EvictExpired removes every session older than timeout and returns them
func (s *SessionStore) EvictExpired(now time.Time, timeout time.Duration) []Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []Session
	for id, sess := range s.sessions {
		if sess.Expired(now, timeout) {
			evicted = append(evicted, sess)
			delete(s.sessions, id)
		}
	}
	return evicted
}

package omnidesk

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// Identity is the authenticated console user as returned by /auth.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Session is a point-in-time copy of the session state.
type Session struct {
	Token string    `json:"token,omitempty"`
	User  *Identity `json:"user,omitempty"`
}

// IsAuthenticated reports whether the snapshot carries a token.
func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}

// SessionStore holds the current credential and identity. One store is
// shared by every gateway of a client, so a logout triggered by any channel
// is seen by all of them on their next request.
type SessionStore struct {
	mu        sync.RWMutex
	token     string
	user      *Identity
	listeners []func(Session)
}

// NewSessionStore returns an empty, unauthenticated store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Login replaces the token and identity unconditionally.
func (s *SessionStore) Login(token string, user Identity) {
	s.mu.Lock()
	s.token = token
	s.user = &user
	snap := s.snapshotLocked()
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, snap)
}

// Logout clears the session. Calling it while logged out is a no-op apart
// from notifying observers again with the same empty state.
func (s *SessionStore) Logout() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, Session{})
}

// ReplaceIdentity swaps the identity wholesale while keeping the token. It
// does nothing and returns false when the session is not authenticated.
func (s *SessionStore) ReplaceIdentity(user Identity) bool {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return false
	}
	s.user = &user
	snap := s.snapshotLocked()
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, snap)
	return true
}

// Token returns the current token, if any.
func (s *SessionStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// User returns a copy of the current identity, if any.
func (s *SessionStore) User() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return Identity{}, false
	}
	return *s.user, true
}

// IsAuthenticated reports whether a token is held.
func (s *SessionStore) IsAuthenticated() bool {
	_, ok := s.Token()
	return ok
}

// Snapshot returns a copy of the whole session.
func (s *SessionStore) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// OnChange registers fn to run after every transition. Observers run on the
// goroutine that caused the transition, outside the store lock.
func (s *SessionStore) OnChange(fn func(Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *SessionStore) snapshotLocked() Session {
	snap := Session{Token: s.token}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

func notify(listeners []func(Session), snap Session) {
	for _, fn := range listeners {
		fn(snap)
	}
}

// LoadSession reads a session previously written by SaveSession. A missing
// file yields an empty session and no error.
func LoadSession(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// SaveSession writes the session to path with owner-only permissions.
func SaveSession(path string, sess Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// RemoveSession deletes the session file. Removing a missing file is not an error.
func RemoveSession(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Restore loads sess into the store; an unauthenticated snapshot leaves the
// store logged out.
func (s *SessionStore) Restore(sess Session) {
	if !sess.IsAuthenticated() {
		s.Logout()
		return
	}
	var user Identity
	if sess.User != nil {
		user = *sess.User
	}
	s.Login(sess.Token, user)
}

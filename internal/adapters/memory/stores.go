package memory

// Package memory provides in-memory implementations of the persistence ports.
// They back unit tests and degraded production modes: when Redis is not
// configured, guest tracking and return-URL memory simply do not survive a
// process restart, which is the accepted degradation.

import (
	"context"
	"sync"
	"time"

	domainauth "github.com/benerin/benerin-api/internal/domain/auth"
	"github.com/benerin/benerin-api/internal/domain/guest"
)

// ErrNotFound is returned when a record is not present.
type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var ErrNotFound error = notFoundError{}

// SessionStore is an in-memory credential session store.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domainauth.Session
}

// NewSessionStore creates an empty in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]domainauth.Session)}
}

func (s *SessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return domainauth.Session{}, ErrNotFound
	}
	if time.Now().After(sess.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// GuestStore is an in-memory guest session store.
type GuestStore struct {
	mu       sync.RWMutex
	sessions map[string]guest.Session
}

// NewGuestStore creates an empty in-memory guest store.
func NewGuestStore() *GuestStore {
	return &GuestStore{sessions: make(map[string]guest.Session)}
}

func (s *GuestStore) Get(_ context.Context, id string) (guest.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return guest.Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *GuestStore) Save(_ context.Context, sess guest.Session) error {
	if sess.ID == "" {
		return ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *GuestStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// ReturnURLStore is an in-memory single-slot-per-key return URL store.
type ReturnURLStore struct {
	mu    sync.Mutex
	slots map[string]string
}

// NewReturnURLStore creates an empty in-memory return-URL store.
func NewReturnURLStore() *ReturnURLStore {
	return &ReturnURLStore{slots: make(map[string]string)}
}

func (s *ReturnURLStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.slots[key]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (s *ReturnURLStore) Set(_ context.Context, key, rawURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = rawURL
	return nil
}

func (s *ReturnURLStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, key)
	return nil
}

package session

import (
	"context"
	"sync"
	"time"

	"foozadmin/internal/models"
)

type entry struct {
	value   string
	expires time.Time
}

// MemoryStore keeps the session in process memory. It is the test double for
// the persistent store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	opts    options
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		opts:    buildOptions(opts),
	}
}

// Set writes token and user under one lock.
func (s *MemoryStore) Set(_ context.Context, token string, user models.User, ttl time.Duration) error {
	raw, err := encodeUser(user)
	if err != nil {
		return err
	}
	expires := s.opts.now().Add(ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[TokenKey] = entry{value: token, expires: expires}
	s.entries[UserKey] = entry{value: raw, expires: expires}
	return nil
}

// CurrentUser returns the stored user if present and unexpired.
func (s *MemoryStore) CurrentUser(_ context.Context) (*models.User, bool) {
	raw, ok := s.get(UserKey)
	if !ok {
		return nil, false
	}
	return decodeUser(raw, s.opts.log)
}

// Token returns the stored token if present and unexpired.
func (s *MemoryStore) Token(_ context.Context) string {
	token, _ := s.get(TokenKey)
	return token
}

// Clear drops both entries.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, TokenKey)
	delete(s.entries, UserKey)
	return nil
}

func (s *MemoryStore) get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return "", false
	}
	if !s.opts.now().Before(e.expires) {
		delete(s.entries, name)
		return "", false
	}
	return e.value, true
}

package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/shikkhaloy/shikkhaloy/core/user"
)

var nowFunc = time.Now // mockable

// memoryStore is used when no redis address is configured, and in tests.
type memoryStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

var _ user.SessionStore = (*memoryStore)(nil) // interface compliance check

func NewMemoryStore() user.SessionStore {
	return &memoryStore{revoked: make(map[string]time.Time)}
}

func (s *memoryStore) Revoke(_ context.Context, sessionID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowFunc()
	for id, exp := range s.revoked {
		if !exp.After(now) {
			delete(s.revoked, id)
		}
	}
	if until.After(now) {
		s.revoked[sessionID] = until
	}
	return nil
}

func (s *memoryStore) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.revoked[sessionID]
	return ok && exp.After(nowFunc()), nil
}

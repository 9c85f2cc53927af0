package repository

import (
	"context"
	"sync"
	"time"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/ports"
)

// MemoryCredentialStore is used when neither Redis nor PostgreSQL is
// configured. Credentials do not survive a console restart.
type MemoryCredentialStore struct {
	mu      sync.Mutex
	entries map[string]memoryCredential
	now     func() time.Time
}

type memoryCredential struct {
	token     string
	expiresAt time.Time
}

var _ ports.CredentialStore = (*MemoryCredentialStore)(nil)

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		entries: make(map[string]memoryCredential),
		now:     time.Now,
	}
}

func (s *MemoryCredentialStore) SaveCredential(ctx context.Context, sessionID, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = memoryCredential{token: token, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryCredentialStore) LoadCredential(ctx context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[sessionID]
	if !ok {
		return "", domain.ErrNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, sessionID)
		return "", domain.ErrNotFound
	}
	return entry.token, nil
}

func (s *MemoryCredentialStore) DeleteCredential(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

// PurgeExpired drops expired entries.
func (s *MemoryCredentialStore) PurgeExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	now := s.now()
	for id, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, id)
			n++
		}
	}
	return n, nil
}

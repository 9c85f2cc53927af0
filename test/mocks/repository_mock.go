// Package mocks provides hand-written implementations of the port
// interfaces so the core services and HTTP adapters can be tested without
// Redis, PostgreSQL, RabbitMQ or the remote PickPoint API.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/ports"
)

// MockCredentialStore implements ports.CredentialStore in memory.
type MockCredentialStore struct {
	mu sync.RWMutex

	tokens map[string]string

	// Call tracking for verification
	SaveCalls   []string
	LoadCalls   []string
	DeleteCalls []string

	// Error injection
	SaveError   error
	LoadError   error
	DeleteError error
}

var _ ports.CredentialStore = (*MockCredentialStore)(nil)

func NewMockCredentialStore() *MockCredentialStore {
	return &MockCredentialStore{tokens: make(map[string]string)}
}

// Seed stores a credential directly, as if a previous console process had
// saved it.
func (m *MockCredentialStore) Seed(sessionID, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[sessionID] = token
}

func (m *MockCredentialStore) SaveCredential(ctx context.Context, sessionID, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls = append(m.SaveCalls, sessionID)
	if m.SaveError != nil {
		return m.SaveError
	}
	m.tokens[sessionID] = token
	return nil
}

func (m *MockCredentialStore) LoadCredential(ctx context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCalls = append(m.LoadCalls, sessionID)
	if m.LoadError != nil {
		return "", m.LoadError
	}
	token, ok := m.tokens[sessionID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return token, nil
}

func (m *MockCredentialStore) DeleteCredential(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls = append(m.DeleteCalls, sessionID)
	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.tokens, sessionID)
	return nil
}

// Token returns the stored credential for a session.
func (m *MockCredentialStore) Token(sessionID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tokens[sessionID]
	return t, ok
}

func (m *MockCredentialStore) LoadCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.LoadCalls)
}

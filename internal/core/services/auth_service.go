package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/ports"
)

// SessionService owns every live Session, keyed by the id carried in the
// console cookie.
type SessionService struct {
	api       ports.AuthAPI
	store     ports.CredentialStore
	publisher ports.ActivityPublisher
	ttl       time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionService(
	api ports.AuthAPI,
	store ports.CredentialStore,
	publisher ports.ActivityPublisher,
	ttl time.Duration,
) *SessionService {
	return &SessionService{
		api:       api,
		store:     store,
		publisher: publisher,
		ttl:       ttl,
		sessions:  make(map[string]*Session),
	}
}

func (s *SessionService) NewSessionID() string {
	return uuid.NewString()
}

// Session returns the session for id, creating an uninitialised one if the
// console has not seen it since start-up.
func (s *SessionService) Session(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = newSession(id, s.api, s.store, s.ttl)
		s.sessions[id] = sess
	}
	return sess
}

// Resolve returns the session for id after its initial auth check.
func (s *SessionService) Resolve(ctx context.Context, id string) *Session {
	sess := s.Session(id)
	sess.Init(ctx)
	return sess
}

// Login authenticates into a fresh session id so that a pre-login cookie is
// never promoted to an authenticated one. The previous session is dropped.
func (s *SessionService) Login(ctx context.Context, previousID, username, password string) (*Session, error) {
	sess := s.Session(s.NewSessionID())

	identity, err := sess.Login(ctx, username, password)
	if err != nil {
		s.forget(sess.ID())
		return nil, err
	}

	if previousID != "" {
		s.forget(previousID)
	}

	log.Printf("session %s: %s logged in as %s", sess.ID(), identity.Username, identity.Role)
	publish(ctx, s.publisher, ports.ActivityEvent{
		Type:       ports.ActivityLogin,
		Actor:      identity.Username,
		Role:       string(identity.Role),
		LocationID: identity.LocationID,
	})
	return sess, nil
}

// Logout clears the session and forgets it.
func (s *SessionService) Logout(ctx context.Context, id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		if err := s.store.DeleteCredential(ctx, id); err != nil {
			log.Printf("session %s: delete credential: %v", id, err)
		}
		return
	}

	identity, hadIdentity := sess.Identity()
	sess.Logout(ctx)
	sess.Teardown()
	s.forget(id)

	if hadIdentity {
		publish(ctx, s.publisher, ports.ActivityEvent{
			Type:       ports.ActivityLogout,
			Actor:      identity.Username,
			Role:       string(identity.Role),
			LocationID: identity.LocationID,
		})
	}
}

// Sweep drops in-memory sessions idle for longer than maxIdle. Their
// credentials stay in the store until it expires them, so a returning
// browser is restored by CheckAuth.
func (s *SessionService) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *SessionService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionService) forget(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func actorOf(sess *Session) ports.ActivityEvent {
	identity, _ := sess.Identity()
	return ports.ActivityEvent{
		Actor:      identity.Username,
		Role:       string(identity.Role),
		LocationID: identity.LocationID,
	}
}

func identityOf(sess *Session) domain.Identity {
	identity, _ := sess.Identity()
	return identity
}

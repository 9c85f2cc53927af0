package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/ports"
)

const loginFailedMessage = "Failed to login. Please try again."

// SessionState is a point-in-time view of a Session. Identity is nil when
// nobody is authenticated.
type SessionState struct {
	Loading  bool
	Identity *domain.Identity
}

func (s SessionState) Authenticated() bool {
	return !s.Loading && s.Identity != nil
}

// Session holds the identity and bearer credential of one browser session.
// The credential is persisted in the CredentialStore under the session id so
// that a restarted console can restore it through CheckAuth.
type Session struct {
	id    string
	api   ports.AuthAPI
	store ports.CredentialStore
	ttl   time.Duration

	mu          sync.Mutex
	identity    *domain.Identity
	token       string
	loading     bool
	initialized bool
	lastSeen    time.Time
	values      map[string]any
}

func newSession(id string, api ports.AuthAPI, store ports.CredentialStore, ttl time.Duration) *Session {
	return &Session{
		id:       id,
		api:      api,
		store:    store,
		ttl:      ttl,
		lastSeen: time.Now(),
		values:   make(map[string]any),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Init runs the first CheckAuth for this session. Later calls return
// immediately; callers that arrive while the check is in flight observe
// Loading.
func (s *Session) Init(ctx context.Context) {
	s.mu.Lock()
	s.lastSeen = time.Now()
	if s.initialized {
		s.mu.Unlock()
		return
	}
	s.initialized = true
	s.loading = true
	s.mu.Unlock()

	s.check(ctx)
}

// Teardown exists for lifecycle symmetry; there is no server-side session
// to close.
func (s *Session) Teardown() {}

// CheckAuth validates the persisted credential against the API. Any failure
// de-authenticates the session.
func (s *Session) CheckAuth(ctx context.Context) SessionState {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	return s.check(ctx)
}

// check runs with loading already set and clears it when done.
func (s *Session) check(ctx context.Context) SessionState {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	if token == "" {
		stored, err := s.store.LoadCredential(ctx, s.id)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			log.Printf("session %s: load credential: %v", s.id, err)
		}
		token = stored
	}

	if token == "" {
		s.clear(ctx, false)
		return s.stateAfterCheck()
	}

	identity, err := s.api.Me(ctx, token)
	if err == nil && !identity.Valid() {
		err = errors.New("identity missing role or location")
	}
	if err != nil {
		log.Printf("session %s: auth check failed: %v", s.id, err)
		s.clear(ctx, true)
		return s.stateAfterCheck()
	}

	s.mu.Lock()
	s.identity = &identity
	s.token = token
	s.mu.Unlock()
	return s.stateAfterCheck()
}

func (s *Session) stateAfterCheck() SessionState {
	st := s.State()
	st.Loading = false
	return st
}

// Login authenticates against the API. On failure the previous state is
// left untouched and the returned error carries the user-facing message.
func (s *Session) Login(ctx context.Context, username, password string) (domain.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.Identity{}, domain.Invalid("Please enter both username and password")
	}

	token, identity, err := s.api.Login(ctx, username, password)
	if err == nil && !identity.Valid() {
		err = errors.New("login returned an identity without role or location")
	}
	if err != nil {
		return domain.Identity{}, fail("login", err, Messages{Generic: loginFailedMessage, PreferServer: true, Credentials: true})
	}

	if err := s.store.SaveCredential(ctx, s.id, token, s.ttl); err != nil {
		log.Printf("session %s: persist credential: %v", s.id, err)
	}

	s.mu.Lock()
	s.identity = &identity
	s.token = token
	s.initialized = true
	s.lastSeen = time.Now()
	s.mu.Unlock()
	return identity, nil
}

// Logout clears the identity and the persisted credential. It never fails;
// store errors are logged.
func (s *Session) Logout(ctx context.Context) {
	s.clear(ctx, true)
}

// Invalidate is Logout triggered by the API rejecting the credential.
func (s *Session) Invalidate(ctx context.Context) {
	log.Printf("session %s: credential rejected, logging out", s.id)
	s.clear(ctx, true)
}

func (s *Session) clear(ctx context.Context, deleteStored bool) {
	s.mu.Lock()
	s.identity = nil
	s.token = ""
	s.initialized = true
	s.values = make(map[string]any)
	s.mu.Unlock()

	if !deleteStored {
		return
	}
	if err := s.store.DeleteCredential(ctx, s.id); err != nil {
		log.Printf("session %s: delete credential: %v", s.id, err)
	}
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := SessionState{Loading: s.loading}
	if s.identity != nil {
		id := *s.identity
		st.Identity = &id
	}
	return st
}

// Identity returns a copy of the current identity.
func (s *Session) Identity() (domain.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return domain.Identity{}, false
	}
	return *s.identity, true
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// sessionValue returns per-session state stored under key, creating it on
// first use. Values are dropped when the session is cleared.
func sessionValue[T any](s *Session, key string, create func() T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key].(T); ok {
		return v
	}
	v := create()
	s.values[key] = v
	return v
}

// authorized runs fn with the session credential. A 401 from the API
// invalidates the session.
func authorized(ctx context.Context, s *Session, fn func(token string) error) error {
	token := s.Token()
	if token == "" {
		return domain.ErrUnauthorized
	}
	err := fn(token)
	if errors.Is(err, domain.ErrUnauthorized) {
		s.Invalidate(ctx)
	}
	return err
}

package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/ports"
	"github.com/isavralabel/pickpoint-console/internal/core/services"
	"github.com/isavralabel/pickpoint-console/test/mocks"
)

const testTTL = time.Hour

type fixture struct {
	api       *mocks.MockPickPointAPI
	store     *mocks.MockCredentialStore
	publisher *mocks.MockActivityPublisher
	sessions  *services.SessionService
}

func newFixture() *fixture {
	api := mocks.NewMockPickPointAPI()
	store := mocks.NewMockCredentialStore()
	pub := mocks.NewMockActivityPublisher()
	return &fixture{
		api:       api,
		store:     store,
		publisher: pub,
		sessions:  services.NewSessionService(api, store, pub, testTTL),
	}
}

// login seeds identity and returns an authenticated session for it.
func (f *fixture) login(t *testing.T, identity domain.Identity) *services.Session {
	t.Helper()
	f.api.SeedAccount("secret", identity)
	sess, err := f.sessions.Login(context.Background(), "", identity.Username, "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return sess
}

func TestCheckAuth_NoCredential(t *testing.T) {
	f := newFixture()
	sess := f.sessions.Session("fresh")

	state := sess.CheckAuth(context.Background())

	if state.Identity != nil {
		t.Errorf("expected no identity, got %+v", state.Identity)
	}
	if state.Loading {
		t.Error("expected loading to be false after the check")
	}
	if f.api.MeCount() != 0 {
		t.Errorf("expected no network call, got %d", f.api.MeCount())
	}
}

func TestCheckAuth_RestoresPersistedCredential(t *testing.T) {
	f := newFixture()
	identity := mocks.StaffIdentity(4)
	f.api.SeedToken("persisted", identity)
	f.store.Seed("sid-1", "persisted")

	sess := f.sessions.Resolve(context.Background(), "sid-1")

	got, ok := sess.Identity()
	if !ok {
		t.Fatal("expected identity to be restored")
	}
	if got.Username != identity.Username || got.LocationID != 4 {
		t.Errorf("unexpected identity %+v", got)
	}
	if sess.Token() != "persisted" {
		t.Errorf("expected token to be loaded, got %q", sess.Token())
	}
}

func TestCheckAuth_RejectedCredentialFailsClosed(t *testing.T) {
	f := newFixture()
	f.store.Seed("sid-1", "expired")
	sess := f.sessions.Session("sid-1")

	state := sess.CheckAuth(context.Background())
	if state.Identity != nil {
		t.Error("expected no identity for rejected credential")
	}
	if _, ok := f.store.Token("sid-1"); ok {
		t.Error("expected stored credential to be cleared")
	}
	if f.api.MeCount() != 1 {
		t.Fatalf("expected one auth check, got %d", f.api.MeCount())
	}

	again := sess.CheckAuth(context.Background())
	if again.Identity != nil {
		t.Error("expected repeated check to stay unauthenticated")
	}
	if f.api.MeCount() != 1 {
		t.Errorf("expected no further network call, got %d", f.api.MeCount())
	}
}

func TestCheckAuth_NetworkFailureFailsClosed(t *testing.T) {
	f := newFixture()
	f.api.SeedToken("valid", mocks.AdminIdentity())
	f.store.Seed("sid-1", "valid")
	f.api.FailWith("Me", mocks.Unavailable())

	state := f.sessions.Session("sid-1").CheckAuth(context.Background())

	if state.Identity != nil {
		t.Error("expected network failure to de-authenticate")
	}
	if _, ok := f.store.Token("sid-1"); ok {
		t.Error("expected credential to be cleared on ambiguous validity")
	}
}

func TestCheckAuth_StaffWithoutLocationRejected(t *testing.T) {
	f := newFixture()
	f.api.SeedToken("t", domain.Identity{Username: "x", Role: domain.RoleStaff})
	f.store.Seed("sid-1", "t")

	if state := f.sessions.Session("sid-1").CheckAuth(context.Background()); state.Identity != nil {
		t.Error("expected staff identity without location to be rejected")
	}
}

func TestSession_LoadingDuringInitialCheck(t *testing.T) {
	f := newFixture()
	f.store.Seed("sid-1", "valid")
	f.api.SeedToken("valid", mocks.AdminIdentity())

	block := make(chan struct{})
	entered := make(chan struct{})
	store := &blockingStore{MockCredentialStore: f.store, entered: entered, release: block}
	sessions := services.NewSessionService(f.api, store, nil, testTTL)
	sess := sessions.Session("sid-1")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sess.Init(context.Background())
	}()

	<-entered
	if st := sess.State(); !st.Loading {
		t.Error("expected loading while the initial check is in flight")
	}
	if st := sess.State(); st.Authenticated() {
		t.Error("expected loading state to be neither authenticated nor final")
	}
	close(block)
	wg.Wait()

	st := sess.State()
	if st.Loading || st.Identity == nil {
		t.Errorf("expected authenticated state after check, got %+v", st)
	}
}

func TestSession_ConcurrentInitNeverLooksLoggedOut(t *testing.T) {
	f := newFixture()
	f.store.Seed("sid-1", "valid")
	f.api.SeedToken("valid", mocks.AdminIdentity())

	block := make(chan struct{})
	entered := make(chan struct{})
	store := &blockingStore{MockCredentialStore: f.store, entered: entered, release: block}
	sessions := services.NewSessionService(f.api, store, nil, testTTL)
	sess := sessions.Session("sid-1")

	const requests = 16
	start := make(chan struct{})
	states := make(chan services.SessionState, requests)
	for i := 0; i < requests; i++ {
		go func() {
			<-start
			sess.Init(context.Background())
			states <- sess.State()
		}()
	}
	close(start)

	// One request runs the check and blocks in the store; the rest return
	// straight away and must see the check as pending.
	<-entered
	for i := 0; i < requests-1; i++ {
		st := <-states
		if !st.Loading && st.Identity == nil {
			t.Errorf("request %d saw a logged-out session while the initial check was pending", i)
		}
	}
	close(block)

	if st := <-states; !st.Authenticated() {
		t.Errorf("expected authenticated state after check, got %+v", st)
	}
}

type blockingStore struct {
	*mocks.MockCredentialStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingStore) LoadCredential(ctx context.Context, sessionID string) (string, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.MockCredentialStore.LoadCredential(ctx, sessionID)
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name        string
		username    string
		password    string
		setup       func(*fixture)
		wantErr     bool
		wantMessage string
		wantCalls   int
	}{
		{
			name:      "valid credentials",
			username:  "admin",
			password:  "secret",
			wantCalls: 1,
		},
		{
			name:        "blank password is rejected locally",
			username:    "admin",
			password:    "",
			wantErr:     true,
			wantMessage: "Please enter both username and password",
		},
		{
			name:        "server message is surfaced",
			username:    "admin",
			password:    "wrong",
			wantErr:     true,
			wantMessage: "Invalid credentials",
			wantCalls:   1,
		},
		{
			name:     "network failure falls back to generic message",
			username: "admin",
			password: "secret",
			setup: func(f *fixture) {
				f.api.FailWith("Login", errors.New("dial tcp: connection refused"))
			},
			wantErr:     true,
			wantMessage: "Failed to login. Please try again.",
			wantCalls:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.api.SeedAccount("secret", mocks.AdminIdentity())
			if tt.setup != nil {
				tt.setup(f)
			}

			sess, err := f.sessions.Login(context.Background(), "", tt.username, tt.password)

			if len(f.api.LoginCalls) != tt.wantCalls {
				t.Errorf("expected %d login calls, got %d", tt.wantCalls, len(f.api.LoginCalls))
			}
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if msg := services.Message(err); msg != tt.wantMessage {
					t.Errorf("expected message %q, got %q", tt.wantMessage, msg)
				}
				if f.sessions.Len() != 0 {
					t.Errorf("expected failed login to leave no session, got %d", f.sessions.Len())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tok, ok := f.store.Token(sess.ID()); !ok || tok != "token-admin" {
				t.Errorf("expected credential to be persisted, got %q", tok)
			}
			if len(f.publisher.EventsOfType(ports.ActivityLogin)) != 1 {
				t.Error("expected a login activity event")
			}
		})
	}
}

func TestLogin_RotatesSessionID(t *testing.T) {
	f := newFixture()
	f.api.SeedAccount("secret", mocks.AdminIdentity())
	anon := f.sessions.Resolve(context.Background(), "pre-login")

	sess, err := f.sessions.Login(context.Background(), anon.ID(), "admin", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.ID() == "pre-login" {
		t.Error("expected a new session id after login")
	}
	if f.sessions.Len() != 1 {
		t.Errorf("expected the pre-login session to be dropped, got %d sessions", f.sessions.Len())
	}
}

func TestLogout(t *testing.T) {
	f := newFixture()
	sess := f.login(t, mocks.AdminIdentity())
	id := sess.ID()

	f.sessions.Logout(context.Background(), id)

	if _, ok := sess.Identity(); ok {
		t.Error("expected identity to be cleared")
	}
	if _, ok := f.store.Token(id); ok {
		t.Error("expected credential to be removed from the store")
	}
	if len(f.publisher.EventsOfType(ports.ActivityLogout)) != 1 {
		t.Error("expected a logout activity event")
	}

	next := f.sessions.Resolve(context.Background(), id)
	if st := next.State(); st.Identity != nil {
		t.Error("expected the next request to be unauthenticated")
	}
}

func TestLogout_StoreErrorIsNotFatal(t *testing.T) {
	f := newFixture()
	sess := f.login(t, mocks.AdminIdentity())
	f.store.DeleteError = errors.New("redis down")

	f.sessions.Logout(context.Background(), sess.ID())

	if _, ok := sess.Identity(); ok {
		t.Error("expected identity to be cleared even when the store fails")
	}
}

func TestUnauthorizedCallInvalidatesSession(t *testing.T) {
	f := newFixture()
	sess := f.login(t, mocks.AdminIdentity())
	packages := services.NewPackageService(f.api, f.publisher)

	f.api.RevokeToken("token-admin")
	_, err := packages.Load(context.Background(), sess)

	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if _, ok := sess.Identity(); ok {
		t.Error("expected 401 to clear the identity")
	}
	if _, ok := f.store.Token(sess.ID()); ok {
		t.Error("expected 401 to clear the stored credential")
	}
}

func TestSweep(t *testing.T) {
	f := newFixture()
	f.sessions.Session("a")
	f.sessions.Session("b")

	if removed := f.sessions.Sweep(time.Hour); removed != 0 {
		t.Errorf("expected fresh sessions to survive, removed %d", removed)
	}
	if removed := f.sessions.Sweep(-time.Second); removed != 2 {
		t.Errorf("expected both sessions to be swept, removed %d", removed)
	}
}

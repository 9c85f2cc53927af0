package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/services"
	"github.com/isavralabel/pickpoint-console/test/mocks"
)

var testSecret = []byte("test-session-secret")

type fixture struct {
	api      *mocks.MockPickPointAPI
	store    *mocks.MockCredentialStore
	sessions *services.SessionService
	mw       *SessionMiddleware
}

func newFixture() *fixture {
	api := mocks.NewMockPickPointAPI()
	api.SeedAccount("secret", mocks.AdminIdentity())
	api.SeedAccount("secret", mocks.StaffIdentity(3))
	store := mocks.NewMockCredentialStore()
	sessions := services.NewSessionService(api, store, nil, time.Hour)
	return &fixture{
		api:      api,
		store:    store,
		sessions: sessions,
		mw:       NewSessionMiddleware(sessions, testSecret, false, time.Hour),
	}
}

// cookieFor logs username in and returns the signed cookie of the session.
func (f *fixture) cookieFor(t *testing.T, username string) *http.Cookie {
	t.Helper()
	sess, err := f.sessions.Login(context.Background(), "", username, "secret")
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return f.signed(t, sess.ID())
}

func (f *fixture) signed(t *testing.T, sid string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := f.mw.Issue(rec, sid); err != nil {
		t.Fatalf("issue cookie: %v", err)
	}
	return sessionCookie(t, rec)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func captureSession(got **services.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFrom(r.Context())
		if ok {
			*got = sess
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionLoad_NoCookieIssuesAnonymousSession(t *testing.T) {
	f := newFixture()
	var sess *services.Session
	handler := f.mw.Load(captureSession(&sess))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if sess == nil {
		t.Fatal("expected a session in the request context")
	}
	if sess.State().Identity != nil {
		t.Error("expected an anonymous session")
	}
	cookie := sessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("expected a session cookie to be issued")
	}
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("expected HttpOnly Lax cookie, got %+v", cookie)
	}
	if strings.Contains(cookie.Value, "token-") {
		t.Error("bearer credential leaked into the cookie")
	}
}

func TestSessionLoad_ValidCookieRestoresIdentity(t *testing.T) {
	f := newFixture()
	cookie := f.cookieFor(t, "admin")

	var sess *services.Session
	handler := f.mw.Load(captureSession(&sess))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if sess == nil {
		t.Fatal("expected a session in the request context")
	}
	identity, ok := sess.Identity()
	if !ok || identity.Username != "admin" {
		t.Errorf("expected admin identity, got %+v", identity)
	}
	if sessionCookie(t, rec) != nil {
		t.Error("expected no new cookie for a valid session")
	}
}

func TestSessionLoad_RejectedCookies(t *testing.T) {
	f := newFixture()
	valid := f.cookieFor(t, "admin")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": "expired-sid",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	expiredValue, _ := expired.SignedString(testSecret)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": "foreign-sid",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	foreignValue, _ := foreign.SignedString([]byte("another-secret"))

	noSid := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	noSidValue, _ := noSid.SignedString(testSecret)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sid": "none-sid"})
	unsignedValue, _ := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		value string
	}{
		{"tampered signature", valid.Value + "x"},
		{"expired", expiredValue},
		{"signed with another secret", foreignValue},
		{"missing sid", noSidValue},
		{"alg none", unsignedValue},
		{"garbage", "not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sess *services.Session
			handler := f.mw.Load(captureSession(&sess))

			req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
			req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.value})
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if sess == nil {
				t.Fatal("expected a session in the request context")
			}
			if sess.State().Identity != nil {
				t.Error("expected an anonymous session for a rejected cookie")
			}
			if sessionCookie(t, rec) == nil {
				t.Error("expected a replacement cookie")
			}
		})
	}
}

func TestClear_ExpiresCookie(t *testing.T) {
	f := newFixture()
	rec := httptest.NewRecorder()
	f.mw.Clear(rec)

	cookie := sessionCookie(t, rec)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Errorf("expected an expired cookie, got %+v", cookie)
	}
}

func TestGuard(t *testing.T) {
	f := newFixture()
	admin := f.cookieFor(t, "admin")
	staff := f.cookieFor(t, "staff")

	placeholder := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	page := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := Chain(page, f.mw.Load, Guard(placeholder))

	tests := []struct {
		name         string
		cookie       *http.Cookie
		path         string
		expectedCode int
		expectedLoc  string
	}{
		{"anonymous protected", nil, "/packages", http.StatusSeeOther, "/login"},
		{"anonymous unknown path", nil, "/reports", http.StatusSeeOther, "/login"},
		{"anonymous login", nil, "/login", http.StatusOK, ""},
		{"admin login", admin, "/login", http.StatusSeeOther, "/dashboard"},
		{"admin staff page", admin, "/staff", http.StatusOK, ""},
		{"admin nested path", admin, "/locations/4", http.StatusOK, ""},
		{"staff staff page", staff, "/staff", http.StatusSeeOther, "/dashboard"},
		{"staff prices", staff, "/prices", http.StatusSeeOther, "/dashboard"},
		{"staff packages", staff, "/packages/1", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.expectedCode {
				t.Errorf("expected %d, got %d", tt.expectedCode, rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != tt.expectedLoc {
				t.Errorf("expected location %q, got %q", tt.expectedLoc, loc)
			}
		})
	}
}

// blockingStore holds LoadCredential until released so the session stays
// in its loading state.
type blockingStore struct {
	*mocks.MockCredentialStore
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) LoadCredential(ctx context.Context, sessionID string) (string, error) {
	close(s.entered)
	<-s.release
	return s.MockCredentialStore.LoadCredential(ctx, sessionID)
}

func TestGuard_PlaceholderWhileLoading(t *testing.T) {
	store := &blockingStore{
		MockCredentialStore: mocks.NewMockCredentialStore(),
		entered:             make(chan struct{}),
		release:             make(chan struct{}),
	}
	sessions := services.NewSessionService(mocks.NewMockPickPointAPI(), store, nil, time.Hour)
	sess := sessions.Session("loading-sid")

	done := make(chan struct{})
	go func() {
		sess.Init(context.Background())
		close(done)
	}()
	<-store.entered

	placeholder := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	handler := Guard(placeholder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("page rendered while the auth check was running")
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = req.WithContext(context.WithValue(req.Context(), SessionKey, sess))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	close(store.release)
	<-done

	if rec.Code != http.StatusAccepted {
		t.Errorf("expected placeholder, got %d", rec.Code)
	}
}

func TestGuard_MissingSession(t *testing.T) {
	handler := Guard(http.NotFoundHandler())(http.NotFoundHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mark("first"), mark("second"))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, ",") != "first,second,handler" {
		t.Errorf("expected first,second,handler, got %v", order)
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(SecurityHeadersConfig{ContentSecurityPolicy: "default-src 'self'"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	expected := map[string]string{
		"X-Frame-Options":         "DENY",
		"X-Content-Type-Options":  "nosniff",
		"Content-Security-Policy": "default-src 'self'",
	}
	for header, value := range expected {
		if got := rec.Header().Get(header); got != value {
			t.Errorf("expected %s %q, got %q", header, value, got)
		}
	}
	if !strings.Contains(rec.Header().Get("Permissions-Policy"), "camera=(self)") {
		t.Errorf("expected camera allowed for self, got %q", rec.Header().Get("Permissions-Policy"))
	}
}

func TestCSRF_RejectsPostWithoutToken(t *testing.T) {
	key := make([]byte, 32)
	handler := CSRF(key, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected GET to pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("username=a")))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 without a token, got %d", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l := NewRateLimiter()
	l.now = func() time.Time { return now }

	for i := 0; i < maxLoginAttempts-1; i++ {
		l.RecordFailure("10.0.0.1")
	}
	if !l.Allow("10.0.0.1") {
		t.Fatal("expected allow below the threshold")
	}

	l.RecordFailure("10.0.0.1")
	if l.Allow("10.0.0.1") {
		t.Error("expected block at the threshold")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("expected other clients unaffected")
	}

	now = now.Add(loginBlock + time.Second)
	if !l.Allow("10.0.0.1") {
		t.Error("expected block to expire")
	}
}

func TestRateLimiter_WindowAndReset(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l := NewRateLimiter()
	l.now = func() time.Time { return now }

	for i := 0; i < maxLoginAttempts-1; i++ {
		l.RecordFailure("10.0.0.1")
	}
	now = now.Add(loginWindow + time.Second)
	l.RecordFailure("10.0.0.1")
	if !l.Allow("10.0.0.1") {
		t.Error("expected old failures outside the window to be forgotten")
	}

	for i := 0; i < maxLoginAttempts; i++ {
		l.RecordFailure("10.0.0.3")
	}
	l.Reset("10.0.0.3")
	if !l.Allow("10.0.0.3") {
		t.Error("expected reset to unblock")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.7:51234"
	if ip := ClientIP(req); ip != "192.168.1.7" {
		t.Errorf("expected 192.168.1.7, got %q", ip)
	}
	req.RemoteAddr = "unix-socket"
	if ip := ClientIP(req); ip != "unix-socket" {
		t.Errorf("expected raw remote addr, got %q", ip)
	}
}

func TestRequestIDAndObserve(t *testing.T) {
	var seen string
	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}), RequestID, Observe)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, domain.DashboardPath, nil))

	if seen == "" || rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("expected request id %q echoed, got %q", seen, rec.Header().Get("X-Request-ID"))
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("expected status passed through, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seen != "upstream-id" {
		t.Errorf("expected caller request id kept, got %q", seen)
	}
}

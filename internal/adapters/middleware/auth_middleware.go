package middleware

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/isavralabel/pickpoint-console/internal/core/services"
)

// SessionCookieName carries the signed console session id. The bearer
// credential itself never reaches the browser.
const SessionCookieName = "pickpoint_session"

type contextKey string

const (
	SessionKey   contextKey = "session"
	RequestIDKey contextKey = "requestID"
)

type SessionMiddleware struct {
	sessions *services.SessionService
	secret   []byte
	secure   bool
	ttl      time.Duration
}

func NewSessionMiddleware(sessions *services.SessionService, secret []byte, secure bool, ttl time.Duration) *SessionMiddleware {
	return &SessionMiddleware{
		sessions: sessions,
		secret:   secret,
		secure:   secure,
		ttl:      ttl,
	}
}

// Load resolves the console session of the request, running its initial
// auth check, and stores it in the request context. Requests without a
// valid cookie get a fresh anonymous session.
func (m *SessionMiddleware) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, err := m.sessionID(r)
		if err != nil {
			if err != http.ErrNoCookie {
				log.Printf("Session cookie rejected: %v", err)
			}
			sid = m.sessions.NewSessionID()
			if err := m.Issue(w, sid); err != nil {
				log.Printf("Failed to issue session cookie: %v", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
		}

		sess := m.sessions.Resolve(r.Context(), sid)
		ctx := context.WithValue(r.Context(), SessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *SessionMiddleware) sessionID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", err
	}

	token, err := jwt.Parse(cookie.Value, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", jwt.ErrTokenInvalidClaims
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return sid, nil
}

// Issue writes a signed cookie carrying sid.
func (m *SessionMiddleware) Issue(w http.ResponseWriter, sid string) error {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sid,
		"iat": now.Unix(),
		"exp": now.Add(m.ttl).Unix(),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (m *SessionMiddleware) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionFrom returns the session stored by Load.
func SessionFrom(ctx context.Context) (*services.Session, bool) {
	sess, ok := ctx.Value(SessionKey).(*services.Session)
	return sess, ok && sess != nil
}

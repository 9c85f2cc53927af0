package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	maxLoginAttempts = 5
	loginBlock       = 15 * time.Minute
	loginWindow      = 15 * time.Minute
	maxTrackedIPs    = 10000
)

type attemptData struct {
	count        int
	firstAttempt time.Time
}

// RateLimiter blocks a client IP after repeated failed logins. The remote
// API remains the authority on credentials.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptData
	blocked  map[string]time.Time

	maxAttempts int
	window      time.Duration
	block       time.Duration
	now         func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		attempts:    make(map[string]*attemptData),
		blocked:     make(map[string]time.Time),
		maxAttempts: maxLoginAttempts,
		window:      loginWindow,
		block:       loginBlock,
		now:         time.Now,
	}
}

// Allow returns false while ip is blocked. Expired blocks are cleared.
func (l *RateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if until, ok := l.blocked[ip]; ok {
		if l.now().Before(until) {
			return false
		}
		delete(l.blocked, ip)
		delete(l.attempts, ip)
	}
	return true
}

// RecordFailure counts a failed login and blocks ip once the threshold is
// reached within the window.
func (l *RateLimiter) RecordFailure(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Bounded memory; clearing briefly forgets in-progress counts.
	if len(l.attempts) > maxTrackedIPs {
		l.attempts = make(map[string]*attemptData)
	}

	now := l.now()
	data, ok := l.attempts[ip]
	if !ok || now.Sub(data.firstAttempt) > l.window {
		data = &attemptData{firstAttempt: now}
		l.attempts[ip] = data
	}
	data.count++
	if data.count >= l.maxAttempts {
		l.blocked[ip] = now.Add(l.block)
	}
}

// Reset clears ip after a successful login.
func (l *RateLimiter) Reset(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, ip)
	delete(l.blocked, ip)
}

func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

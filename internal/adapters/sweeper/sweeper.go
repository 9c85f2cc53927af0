package sweeper

import (
	"context"
	"log"
	"sync"
	"time"
)

const (
	sweepTimeout = 30 * time.Second

	// A sweeper that has not completed a run in this many intervals is
	// reported as stuck.
	staleIntervals = 3
)

// SessionSweeper drops console sessions idle for longer than maxIdle.
type SessionSweeper interface {
	Sweep(maxIdle time.Duration) int
}

// Purger removes expired credentials from stores that do not expire them
// on their own. Redis does, so it has no purger.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically forgets idle sessions and purges expired
// credentials.
type Sweeper struct {
	sessions SessionSweeper
	store    Purger
	interval time.Duration
	maxIdle  time.Duration

	mu        sync.Mutex
	lastSweep time.Time
	healthy   bool
}

// New builds a sweeper. store may be nil.
func New(sessions SessionSweeper, store Purger, interval, maxIdle time.Duration) *Sweeper {
	return &Sweeper{
		sessions:  sessions,
		store:     store,
		interval:  interval,
		maxIdle:   maxIdle,
		lastSweep: time.Now(),
		healthy:   true,
	}
}

// IsHealthy reports whether the last purge succeeded and a sweep ran
// recently.
func (s *Sweeper) IsHealthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.lastSweep) > staleIntervals*s.interval {
		return false
	}
	return s.healthy
}

// Start sweeps once immediately and then on every interval. It blocks
// until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	log.Printf("sweeper: running every %s, idle limit %s", s.interval, s.maxIdle)
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("sweeper: shutting down...")
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) {
	if n := s.sessions.Sweep(s.maxIdle); n > 0 {
		log.Printf("sweeper: forgot %d idle sessions", n)
	}

	healthy := true
	if s.store != nil {
		ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
		n, err := s.store.PurgeExpired(ctx)
		cancel()
		switch {
		case err != nil:
			log.Printf("sweeper: error purging expired credentials: %v", err)
			healthy = false
		case n > 0:
			log.Printf("sweeper: purged %d expired credentials", n)
		}
	}

	s.mu.Lock()
	s.lastSweep = time.Now()
	s.healthy = healthy
	s.mu.Unlock()
}

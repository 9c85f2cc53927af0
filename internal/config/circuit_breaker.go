package config

import (
	"log"
	"time"

	"github.com/sony/gobreaker"
)

// Circuit breaker names, one per outbound dependency.
const (
	BreakerPickPointAPI = "PickPoint-API"
	BreakerRedis        = "Redis-Credentials"
	BreakerPostgres     = "PostgreSQL-Credentials"
	BreakerRabbitMQ     = "RabbitMQ-Publisher"
)

// NewCircuitBreaker creates a circuit breaker with standard settings.
// The name parameter uniquely identifies the circuit breaker instance.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	var timeout time.Duration

	// Open circuits stay open for less time on dependencies the readiness
	// probe checks (5s), so the probe does not report a stale state.
	switch name {
	case BreakerRedis:
		timeout = time.Second * 5
	case BreakerPostgres:
		timeout = time.Second * 10
	case BreakerPickPointAPI:
		timeout = time.Second * 15
	default:
		timeout = time.Second * 30
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Second * 10,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Open circuit after 3 consecutive failures
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[CRITICAL] Circuit Breaker %s: %s -> %s", name, from, to)
		},
	})
}

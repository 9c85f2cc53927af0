package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// Pinger is a credential store that can report its connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

type BreakerReporter interface {
	BreakerState() gobreaker.State
}

type ReadyChecker interface {
	Ready() error
}

type HealthHandler struct {
	store     Pinger
	storeName string
	api       BreakerReporter
	broker    ReadyChecker
	startTime time.Time
	version   string
}

// NewHealthHandler builds the probes. A nil store means credentials are
// kept in memory; a nil broker means activity publishing is disabled.
func NewHealthHandler(store Pinger, storeName string, api BreakerReporter, broker ReadyChecker, version string) *HealthHandler {
	if version == "" {
		version = "unknown"
	}
	return &HealthHandler{
		store:     store,
		storeName: storeName,
		api:       api,
		broker:    broker,
		startTime: time.Now(),
		version:   version,
	}
}

// HealthResponse follows Kubernetes/OpenShift health check conventions
type HealthResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
}

type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Health is a simple liveness check - just confirms the Go process is running
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "UP",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version,
		Checks:    map[string]Check{"process": {Status: "UP"}},
	})
}

// Ready reports whether the console can serve users: the credential store
// answers, the PickPoint API breaker is not open and, when enabled, the
// activity broker connection is up.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]Check{
		"credential_store": h.checkStore(ctx),
		"pickpoint_api":    h.checkAPI(),
	}
	if h.broker != nil {
		checks["rabbitmq"] = h.checkBroker()
	}

	status := "UP"
	httpStatus := http.StatusOK
	for _, check := range checks {
		if check.Status != "UP" {
			status = "DOWN"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version,
		Checks:    checks,
	})
}

// Live is an alias for Health - simple liveness check
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	h.Health(w, r)
}

func (h *HealthHandler) checkStore(ctx context.Context) Check {
	if h.store == nil {
		return Check{Status: "UP", Message: "In-memory credential store"}
	}
	if err := h.store.Ping(ctx); err != nil {
		log.Printf("Readiness: %s credential store unreachable: %v", h.storeName, err)
		return Check{Status: "DOWN", Message: "Cannot connect to " + h.storeName}
	}
	return Check{Status: "UP", Message: h.storeName}
}

func (h *HealthHandler) checkAPI() Check {
	if h.api == nil {
		return Check{Status: "DOWN", Message: "PickPoint API client is not initialized"}
	}
	if state := h.api.BreakerState(); state == gobreaker.StateOpen {
		return Check{Status: "DOWN", Message: "PickPoint API circuit is open"}
	}
	return Check{Status: "UP"}
}

func (h *HealthHandler) checkBroker() Check {
	if err := h.broker.Ready(); err != nil {
		return Check{Status: "DOWN", Message: "Cannot connect to RabbitMQ"}
	}
	return Check{Status: "UP"}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

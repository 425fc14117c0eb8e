package api

import (
	"context"
	"net/http"
	"time"

	"github.com/meetgrid/backend/pkg/response"
)

// Pinger reports whether the backing store is reachable. Satisfied by
// pgxpool.Pool; the in-memory store uses a nil Pinger.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

type healthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Health returns the overall health status
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, healthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready reports readiness, including store reachability
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "NOT_READY", "database unreachable")
			return
		}
	}
	response.OK(w, healthStatus{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Live reports liveness
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	response.OK(w, healthStatus{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

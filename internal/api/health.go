package api

import (
	"net/http"
	"time"

	"github.com/acelee0621/memenote/internal/api/respond"
	"github.com/acelee0621/memenote/internal/health"
)

// HealthHandler handles health check endpoints. When a monitor is bound,
// CheckHealth reports its cached flag; otherwise it pings the store directly.
type HealthHandler struct {
	db      health.HealthPinger
	monitor *health.ServiceHealthChecker
}

func NewHealthHandler(db health.HealthPinger, monitor *health.ServiceHealthChecker) *HealthHandler {
	return &HealthHandler{db: db, monitor: monitor}
}

// CheckHealth handles GET /api/health.
// Always returns 200; the body reports healthy/unhealthy.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	healthy := true
	switch {
	case h.monitor != nil:
		healthy = h.monitor.IsHealthy()
	case h.db != nil:
		healthy = h.db.HealthPing(r.Context()) == nil
	}
	status := "unhealthy"
	if healthy {
		status = "healthy"
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// CheckStorageHealth handles GET /api/health/db and fails loudly when the
// database is unreachable.
func (h *HealthHandler) CheckStorageHealth(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		respond.WriteInternalError(w, "database not configured")
		return
	}
	if err := h.db.HealthPing(r.Context()); err != nil {
		respond.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

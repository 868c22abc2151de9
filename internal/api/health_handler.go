package api

import (
	"context"
	"net/http"
	"time"
)

// HealthStatus reports the reachability of both backing stores.
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
	}

	status.Services["counter_store"] = h.checkCounterStoreHealth(ctx)
	status.Services["durable_store"] = h.checkDurableStoreHealth(ctx)

	for _, svcStatus := range status.Services {
		if svcStatus != "healthy" {
			status.Status = "degraded"
			break
		}
	}

	code := http.StatusOK
	if status.Status == "degraded" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (h *Handler) checkCounterStoreHealth(ctx context.Context) string {
	if err := h.Counter.HealthCheck(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}

func (h *Handler) checkDurableStoreHealth(ctx context.Context) string {
	if err := h.Durable.HealthCheck(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}

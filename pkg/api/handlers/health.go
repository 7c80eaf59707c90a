package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/drinkscout/drinkscout/pkg/driver"
	"github.com/drinkscout/drinkscout/pkg/metrics"
)

// healthcheckTimeout caps how long a single health sweep may take.
const healthcheckTimeout = 5 * time.Second

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Is the server ready to accept requests?
//   - Driver health: Per-driver status of all registered resources
type HealthHandler struct {
	container *driver.Container
	health    *metrics.DriverMetrics
}

// NewHealthHandler creates a new health handler.
//
// The container may be nil, in which case readiness and driver health
// report unhealthy. The metrics recorder may be nil when metrics are
// disabled.
func NewHealthHandler(container *driver.Container, health *metrics.DriverMetrics) *HealthHandler {
	return &HealthHandler{container: container, health: health}
}

// Liveness handles GET /health.
//
// Returns 200 OK if the server process is running. Designed for Kubernetes
// liveness probes; succeeds as long as the HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "drinkscout",
	}))
}

// Readiness handles GET /health/ready.
//
// Returns 200 OK when the container is initialized and has at least one
// registered driver, 503 Service Unavailable otherwise. Registration alone
// is enough: drivers initialize lazily on first use.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.container == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("container not initialized"))
		return
	}

	names := h.container.Names()
	if len(names) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("no drivers registered"))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"drivers": len(names),
	}))
}

// DriverHealth is the health status of a single driver.
type DriverHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// DriversResponse is the detailed driver health response.
type DriversResponse struct {
	Drivers []DriverHealth `json:"drivers"`
}

// Drivers handles GET /health/drivers.
//
// Runs the container's health sweep over every initialized driver. Returns
// 200 OK when all are healthy, 503 Service Unavailable when any reports
// unhealthy. Drivers that were never used are not listed.
func (h *HealthHandler) Drivers(w http.ResponseWriter, r *http.Request) {
	if h.container == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("container not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthcheckTimeout)
	defer cancel()

	statuses := h.container.HealthcheckAll(ctx)
	h.health.SetHealth(statuses)

	response := DriversResponse{Drivers: make([]DriverHealth, 0, len(statuses))}
	allHealthy := true
	for name, healthy := range statuses {
		status := "healthy"
		if !healthy {
			status = "unhealthy"
			allHealthy = false
		}
		response.Drivers = append(response.Drivers, DriverHealth{Name: name, Status: status})
	}
	sort.Slice(response.Drivers, func(i, j int) bool {
		return response.Drivers[i].Name < response.Drivers[j].Name
	})

	if allHealthy {
		writeJSON(w, http.StatusOK, healthyResponse(response))
	} else {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponseWithData(response))
	}
}

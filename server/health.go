package server

import (
	"context"
	"net/http"
	"time"
)

// probeTimeout bounds the dependency probe on each health request.
const probeTimeout = 5 * time.Second

type healthStatus struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

func (s *Server) checkHealth(ctx context.Context) healthStatus {
	services := map[string]string{"server": "healthy"}
	status := "healthy"

	if s.prober == nil {
		services["mcp"] = "unknown"
		return healthStatus{Status: status, Services: services}
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := s.prober.Healthz(probeCtx); err != nil {
		s.logger.Warn("mcp health probe failed", "error", err)
		services["mcp"] = "unhealthy"
		status = "degraded"
	} else {
		services["mcp"] = "healthy"
	}

	return healthStatus{Status: status, Services: services}
}

// handleHealth reports overall service health: 200 when every probed
// dependency is reachable, 503 when degraded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.checkHealth(r.Context())
	code := http.StatusOK
	if health.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, health)
}

// handleLive reports process liveness only.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleReady reports readiness to serve traffic, including dependency
// reachability.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	health := s.checkHealth(r.Context())
	if health.Status != "healthy" {
		writeJSON(w, http.StatusServiceUnavailable, healthStatus{Status: "not_ready", Services: health.Services})
		return
	}
	writeJSON(w, http.StatusOK, healthStatus{Status: "ready", Services: health.Services})
}

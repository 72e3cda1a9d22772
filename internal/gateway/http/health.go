package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tabgate/pkg/httpx"
)

// HealthResponse is the body returned by the health endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
	Backend string `json:"backend,omitempty"`
}

// BackendProbe checks whether the backend is reachable.
type BackendProbe interface {
	Ping(ctx context.Context) error
}

// LivezHandler is the liveness probe. It returns 200 whenever the process is
// up; backend reachability is readyz's concern.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler is the readiness probe. A gateway that cannot reach its
// backend is up but not ready.
func ReadyzHandler(startTime time.Time, version string, probe BackendProbe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:  "ok",
			Backend: "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		}
		statusCode := http.StatusOK

		if err := probe.Ping(r.Context()); err != nil {
			response.Status = "degraded"
			response.Backend = "error: " + err.Error()
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, response)
	}
}

// Package health serves the liveness and dependency probe.
package health

import (
	"context"
	"net/http"
	"time"

	"gatezero/pkg/platform/httputil"
)

const probeTimeout = 2 * time.Second

// Check probes one dependency.
type Check func(ctx context.Context) error

// Response is the body of GET /healthz.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler reports 200 when every check passes and 503 otherwise. Checks run
// sequentially under a shared timeout.
func Handler(checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		resp := Response{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}

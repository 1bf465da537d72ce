package health

import (
	"encoding/json"
	"net/http"
)

// Handler returns an HTTP handler serving the session's health as JSON.
// Healthy and degraded sessions answer 200 (the liveness monitor is still
// driving recovery); only a terminal session answers 503.
func Handler(session Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status := FromSession(session)

		code := http.StatusOK
		if !status.IsHealthy() && !status.IsDegraded() {
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	})
}

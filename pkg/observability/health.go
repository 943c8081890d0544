package observability

import (
	"context"
	"encoding/json"
	"net/http"
)

const (
	healthStatusOK          = "ok"
	healthStatusUnavailable = "unavailable"
)

// ReadyCheck is a named readiness probe of one subsystem. Check returns nil
// when the subsystem can take requests.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthStatus is the body of /healthz and /readyz responses.
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	// Checks maps each readiness check to "ok" or its failure message.
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthHandler returns an [http.Handler] for liveness checks. It always
// answers 200 and reports the running version.
func HealthHandler(version string) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		writeHealth(rw, http.StatusOK, HealthStatus{Status: healthStatusOK, Version: version})
	})
}

// ReadyHandler returns an [http.Handler] for readiness checks. Every check
// runs on each request; any failure yields 503 and the failing checks carry
// their error in the body.
func ReadyHandler(checks ...ReadyCheck) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		status := HealthStatus{Status: healthStatusOK}
		code := http.StatusOK

		if len(checks) > 0 {
			status.Checks = make(map[string]string, len(checks))
		}

		for _, check := range checks {
			err := check.Check(hr.Context())
			if err != nil {
				status.Checks[check.Name] = err.Error()
				status.Status = healthStatusUnavailable
				code = http.StatusServiceUnavailable

				continue
			}

			status.Checks[check.Name] = healthStatusOK
		}

		writeHealth(rw, code, status)
	})
}

func writeHealth(rw http.ResponseWriter, code int, status HealthStatus) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	// The status line is already sent; a failed write has no recipient.
	_ = json.NewEncoder(rw).Encode(status)
}

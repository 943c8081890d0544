package observability_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/v8cov/pkg/observability"
)

var errNotReady = errors.New("not ready")

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	observability.HealthHandler("1.2.3").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","version":"1.2.3"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestReadyHandler(t *testing.T) {
	t.Parallel()

	pass := observability.ReadyCheck{Name: "merge", Check: func(context.Context) error { return nil }}
	fail := observability.ReadyCheck{Name: "store", Check: func(context.Context) error { return errNotReady }}

	tests := []struct {
		name   string
		checks []observability.ReadyCheck
		code   int
		body   string
	}{
		{name: "no checks", code: http.StatusOK, body: `{"status":"ok"}`},
		{name: "all pass", checks: []observability.ReadyCheck{pass}, code: http.StatusOK, body: `{"status":"ok","checks":{"merge":"ok"}}`},
		{
			name:   "one fails",
			checks: []observability.ReadyCheck{fail, pass},
			code:   http.StatusServiceUnavailable,
			body:   `{"status":"unavailable","checks":{"merge":"ok","store":"not ready"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			observability.ReadyHandler(tt.checks...).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))

			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

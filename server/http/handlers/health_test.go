package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Pinger
		code   int
		status string
	}{
		{name: "no dependencies", code: http.StatusOK, status: "healthy"},
		{
			name:   "all up",
			checks: map[string]Pinger{"database": func(context.Context) error { return nil }},
			code:   http.StatusOK,
			status: "healthy",
		},
		{
			name: "redis down",
			checks: map[string]Pinger{
				"database": func(context.Context) error { return nil },
				"redis":    func(context.Context) error { return errors.New("connection refused") },
			},
			code:   http.StatusServiceUnavailable,
			status: "unhealthy",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealth("test", tt.checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.code, rec.Code)

			var body HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Status)
			assert.Len(t, body.Checks, len(tt.checks))
		})
	}
}

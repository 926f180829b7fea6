package server_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viortio/core/internal/adapters/repository"
	"github.com/viortio/core/internal/infrastructure/config"
	"github.com/viortio/core/internal/infrastructure/logger"
	"github.com/viortio/core/internal/infrastructure/server"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "viortio", Environment: "test"},
		Server: config.ServerConfig{
			Port: 8080,
			Host: "127.0.0.1",
		},
		Session: config.SessionConfig{
			Secret:      "test-secret",
			ExpiresIn:   time.Hour,
			RememberFor: 720 * time.Hour,
			CookieName:  "viortio_session",
			Issuer:      "viortio",
		},
		Security: config.SecurityConfig{
			CORSAllowedOrigins: "*",
			RateLimitRequests:  1000,
			RateLimitWindow:    time.Minute,
		},
		Metrics: config.MetricsConfig{Enabled: true},
	}
}

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	userRepo, taskRepo := repository.NewMemory()
	srv, err := server.NewWithStores(testConfig(), userRepo, taskRepo, logger.NewNop())
	require.NoError(t, err)
	return srv
}

func get(srv *server.Server, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReadiness(t *testing.T) {
	srv := newTestServer(t)

	rec := get(srv, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	// Without a database the server is always ready.
	rec = get(srv, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ready"`)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	get(srv, "/health")

	rec := get(srv, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestErrorsRenderPerSurface(t *testing.T) {
	srv := newTestServer(t)

	// API paths answer with JSON.
	rec := get(srv, "/viortio/api/v1.0/users/garbage")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message"`)

	// Task endpoints sit behind basic auth.
	rec = get(srv, "/viortio/api/v1.0/tasks")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Web paths get the rendered error page.
	rec = get(srv, "/no-such-page")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "<html")
}

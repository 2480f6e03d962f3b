package httpserver

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func healthOK(_ context.Context) error { return nil }

func healthErr(msg string) func(context.Context) error {
	return func(_ context.Context) error { return errors.New(msg) }
}

func TestHandleReadiness(t *testing.T) {
	srv := newTestServer(t, withHealthChecks(
		HealthCheck{Name: "postgres", Check: healthOK},
		HealthCheck{Name: "redis", Check: healthOK},
	))

	rec := doRequest(srv, http.MethodGet, "/health/ready", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestHandleReadiness_RedisDown(t *testing.T) {
	srv := newTestServer(t, withHealthChecks(
		HealthCheck{Name: "postgres", Check: healthOK},
		HealthCheck{Name: "redis", Check: healthErr("connection refused")},
	))

	rec := doRequest(srv, http.MethodGet, "/health/ready", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unhealthy"`)
	assert.Contains(t, rec.Body.String(), `"failed_check":"redis"`)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestHandleReadiness_StopsAtFirstFailure(t *testing.T) {
	redisChecked := false
	srv := newTestServer(t, withHealthChecks(
		HealthCheck{Name: "postgres", Check: healthErr("timeout")},
		HealthCheck{Name: "redis", Check: func(context.Context) error {
			redisChecked = true
			return nil
		}},
	))

	rec := doRequest(srv, http.MethodGet, "/health/ready", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"failed_check":"postgres"`)
	assert.False(t, redisChecked)
}

func TestHandleLiveness(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/health/live", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"uptime"`)
	assert.Contains(t, rec.Body.String(), `"service":"classpoll"`)
}

func TestHandleVersion(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/version", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)
	assert.Contains(t, rec.Body.String(), `"go_version"`)
}

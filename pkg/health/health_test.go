package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, c *Checker, path string) (int, Response) {
	t.Helper()
	e := echo.New()
	c.RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func ok(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func TestReadiness_NotReady(t *testing.T) {
	c := NewChecker("test")

	code, body := serve(t, c, "/api/v1/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, StatusUnhealthy, body.Status)
}

func TestReadiness_Healthy(t *testing.T) {
	c := NewChecker("test")
	c.AddCheck("database", PingFunc(ok), true)
	c.SetReady(true)

	code, body := serve(t, c, "/api/v1/health/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusHealthy, body.Status)
	assert.Equal(t, StatusHealthy, body.Checks["database"].Status)
}

func TestHealth_OptionalDependencyDegrades(t *testing.T) {
	c := NewChecker("test")
	c.AddCheck("database", PingFunc(ok), true)
	c.AddCheck("redis", PingFunc(down), false)

	code, body := serve(t, c, "/api/v1/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusDegraded, body.Status)
	assert.Equal(t, "connection refused", body.Checks["redis"].Message)
}

func TestHealth_CriticalDependencyFails(t *testing.T) {
	c := NewChecker("test")
	c.AddCheck("database", PingFunc(down), true)

	code, body := serve(t, c, "/api/v1/health")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, StatusUnhealthy, body.Status)
}

func TestLiveness(t *testing.T) {
	code, body := serve(t, NewChecker("1.2.3"), "/api/v1/health/live")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1.2.3", body.Version)
}

func TestHealth_ProbeDetail(t *testing.T) {
	c := NewChecker("test")
	c.AddProbe("effectivity_revision", func(context.Context) (string, error) { return "Rev 12", nil }, false)
	c.AddProbe("curated", func(context.Context) (string, error) { return "", errors.New("no configurations") }, false)

	code, body := serve(t, c, "/api/v1/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusDegraded, body.Status)
	assert.Equal(t, "Rev 12", body.Checks["effectivity_revision"].Message)
	assert.Equal(t, StatusDegraded, body.Checks["curated"].Status)
}

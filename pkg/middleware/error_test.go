package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(handler echo.HandlerFunc) *echo.Echo {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	e := echo.New()
	e.HTTPErrorHandler = Error(logger)
	e.Use(Context())
	e.GET("/test", handler)
	return e
}

func TestError_HTTPError(t *testing.T) {
	e := newTestServer(func(c echo.Context) error {
		return httperror.NewHTTPError(http.StatusNotFound, "revision not found")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-42")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Message, "revision not found")
	assert.Equal(t, "req-42", body.RequestID)
	assert.Equal(t, "req-42", rec.Header().Get(echo.HeaderXRequestID))
}

func TestError_PlainError(t *testing.T) {
	e := newTestServer(func(c echo.Context) error {
		return errors.New("database exploded")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal Server Error", body.Message)
	assert.NotEmpty(t, body.RequestID)
}

func TestError_EchoError(t *testing.T) {
	e := newTestServer(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "bad serial")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad serial")
}

func TestError_UnmatchedRoute(t *testing.T) {
	e := newTestServer(func(c echo.Context) error { return nil })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/aircraft/31050/unknown", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Not Found", body.Message)
	assert.NotEmpty(t, body.RequestID)
}

package middleware

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/context"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/tracing"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Message   string         `json:"message"`
	RequestID string         `json:"request_id"`
	TraceID   string         `json:"trace_id"`
	Meta      map[string]any `json:"meta"`
}

// Error renders service errors as ErrorResponse. Errors that are neither an httperror
// nor an echo error are reported as a bare 500 so internals never reach the client.
func Error(logger ectologger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		ctx := c.Request().Context()
		status, body := describe(err)
		body.RequestID = context.GetRequestID(ctx)
		body.TraceID = tracing.TraceID(ctx)

		entry := logger.WithContext(ctx).WithError(err).WithField("status", status)
		if status >= http.StatusInternalServerError {
			entry.Error("api is returning an error")
		} else {
			entry.Info("api is returning a client error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func describe(err error) (int, ErrorResponse) {
	body := ErrorResponse{Message: http.StatusText(http.StatusInternalServerError), Meta: map[string]any{}}

	if httperror.IsHTTPError(err) {
		he := httperror.ToHTTPError(err)
		body.Message = he.Error()
		if he.Meta != nil {
			body.Meta = he.Meta
		}
		return httperror.GetStatusCode(err), body
	}

	var ee *echo.HTTPError
	if errors.As(err, &ee) {
		if msg, ok := ee.Message.(string); ok {
			body.Message = msg
		} else {
			body.Message = http.StatusText(ee.Code)
		}
		return ee.Code, body
	}

	return http.StatusInternalServerError, body
}

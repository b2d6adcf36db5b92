package middleware

import (
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/context"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/metrics"
)

// Logger writes one access line per request and records the API request metrics. It
// hands errors to the error handler first so the logged status is the one sent.
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)

			req, res := c.Request(), c.Response()
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.RecordAPIRequest(route, req.Method, res.Status, elapsed.Seconds())

			fields := context.Fields(req.Context())
			fields["uri"] = req.RequestURI
			fields["status"] = res.Status
			fields["user_agent"] = req.UserAgent()
			fields["response_time"] = elapsed.String()
			fields["response_size"] = res.Size

			entry := logger.WithContext(req.Context()).WithFields(fields)
			switch {
			case res.Status >= http.StatusInternalServerError:
				entry.Warn("Request")
			case req.URL.Path == "/metrics":
				entry.Debug("Request")
			default:
				entry.Info("Request")
			}
			return nil
		}
	}
}

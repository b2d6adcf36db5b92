package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/context"
)

// serialParam is the path parameter naming the aircraft on /aircraft/:serial routes.
const serialParam = "serial"

// Context tags the request context with the request id, the matched route template and,
// on aircraft routes, the serial number, so every log line of the request carries them.
// It must be registered with Use (after routing) for the route and serial to be known.
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			route := c.Path()
			if route == "" {
				route = req.URL.Path
			}

			ctx := context.SetRequestID(req.Context(), requestID)
			ctx = context.SetMethod(ctx, req.Method)
			ctx = context.SetRoute(ctx, route)
			ctx = context.SetRemoteIP(ctx, c.RealIP())
			if serial := c.Param(serialParam); serial != "" {
				ctx = context.SetSerialNumber(ctx, serial)
			}

			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

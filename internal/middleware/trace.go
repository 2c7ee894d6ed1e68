package middleware

import (
	"freshBite/business/recommend"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TraceID attaches a trace identifier to the request context, taking the
// client's X-Trace-ID when present and generating one otherwise.
func TraceID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tid := c.Request().Header.Get("X-Trace-ID")
			if tid == "" {
				tid = uuid.NewString()
			}

			ctx := recommend.WithTraceID(c.Request().Context(), tid)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Response().Header().Set("X-Trace-ID", tid)

			return next(c)
		}
	}
}

package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestID stamps every request with its incoming X-Request-ID header, or
// a fresh UUID when that header is absent, stored under the
// "request_id" echo.Context key that Logger and Recovery both read,
// generalizing the teacher's per-request id convention (cmd/ehr-server
// mints request-scoped uuid.UUID values throughout its handlers) into a
// single piece of global middleware.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get("X-Request-ID")
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Set("request_id", rid)
			c.Response().Header().Set("X-Request-ID", rid)
			return next(c)
		}
	}
}

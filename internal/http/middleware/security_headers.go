package middleware

import (
	"github.com/labstack/echo/v4"
)

const (
	// The API only ever returns JSON or Prometheus text, so nothing may be
	// loaded or framed from a response.
	contentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'"
	strictTransport       = "max-age=31536000; includeSubDomains"
	permissionsPolicy     = "geolocation=(), microphone=(), camera=(), payment=(), usb=()"
)

// SecurityHeaders sets the hardening headers on every response.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("Content-Security-Policy", contentSecurityPolicy)
			h.Set("Strict-Transport-Security", strictTransport)
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Permissions-Policy", permissionsPolicy)
			// Responses carry project and approval data tied to one caller.
			h.Set("Cache-Control", "no-store")
			h.Del("Server")
			h.Del("X-Powered-By")

			return next(c)
		}
	}
}

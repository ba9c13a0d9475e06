package middleware

import (
	"github.com/labstack/echo/v4"
)

// portalHeaders go on every response. The gateway serves JSON to a browser
// and fronts PHI: nothing it returns may be framed, sniffed, or stored by a
// shared cache.
var portalHeaders = map[string]string{
	"X-Content-Type-Options":       "nosniff",
	"X-Frame-Options":              "DENY",
	"X-XSS-Protection":             "0", // legacy filter off; the CSP covers it
	"Content-Security-Policy":      "default-src 'none'; frame-ancestors 'none'",
	"Strict-Transport-Security":    "max-age=31536000; includeSubDomains",
	"Referrer-Policy":              "no-referrer",
	"Permissions-Policy":           "camera=(), microphone=(), geolocation=()",
	"Cross-Origin-Resource-Policy": "same-origin",
	"Cache-Control":                "no-store",
}

// SecurityHeaders sets the portal's security response headers on every
// request. The gateway's own read-through cache sits behind this boundary
// and is unaffected by the no-store.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			for name, value := range portalHeaders {
				h.Set(name, value)
			}
			return next(c)
		}
	}
}

package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Portal roles. Admin passes every gate.
const (
	RolePatient    = "patient"
	RoleCaregiver  = "caregiver"
	RoleProvider   = "provider"
	RolePharmco    = "pharmco"
	RoleResearcher = "researcher"
	RoleCompliance = "compliance"
	RoleAdmin      = "admin"
)

// RequireRole returns middleware that admits the request only when the
// session's role is one of the given roles (or admin). Anything else gets
// the 403 fallback and never the protected payload. Sessions still pending
// two-factor verification carry no role at all, so they are rejected too.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := RoleFromContext(c.Request().Context())
			if role == RoleAdmin {
				return next(c)
			}
			for _, required := range roles {
				if role == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

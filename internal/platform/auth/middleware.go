// Package auth gates portal routes on session state and role membership.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/carelink/portal/internal/platform/session"
	"github.com/carelink/portal/internal/platform/upstream"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
	SessionKey  contextKey = "portal_session"
)

// SessionResolver resolves a bearer token to a live session. Satisfied by
// *session.Manager.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.Session, error)
}

// TokenVerifier extracts the opaque session token from a signed portal
// token. Satisfied by *session.TokenCodec.
type TokenVerifier interface {
	Verify(tokenStr string) (string, error)
}

// SessionMiddleware authenticates requests: it verifies the portal bearer
// token, resolves the session, and injects identity into the request
// context. Pending-2fa sessions are resolved but carry no identity, so every
// role gate downstream rejects them.
func SessionMiddleware(codec TokenVerifier, resolver SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			opaque, err := codec.Verify(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			s, err := resolver.Resolve(c.Request().Context(), opaque)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired or revoked")
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, SessionKey, s)
			if s.Authenticated() {
				ctx = context.WithValue(ctx, UserIDKey, s.UserID)
				ctx = context.WithValue(ctx, UserRoleKey, s.Role)
				// Resource clients forward the backend token from here.
				ctx = upstream.WithToken(ctx, s.UpstreamAccessToken)
			}
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// UserIDFromContext returns the authenticated user id, or "".
func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

// RoleFromContext returns the authenticated role, or "".
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}

// SessionFromContext returns the resolved session, or nil.
func SessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(SessionKey).(*session.Session)
	return s
}

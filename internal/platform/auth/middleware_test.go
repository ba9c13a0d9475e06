package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carelink/portal/internal/platform/session"
	"github.com/carelink/portal/internal/platform/upstream"
)

type staticAuth struct{ result *session.LoginResult }

func (s *staticAuth) Login(context.Context, string, string) (*session.LoginResult, error) {
	return s.result, nil
}
func (s *staticAuth) Verify2FA(context.Context, string, string) (*session.LoginResult, error) {
	return s.result, nil
}
func (s *staticAuth) Logout(context.Context, string) error { return nil }

func testStack(t *testing.T, result *session.LoginResult) (*session.Manager, *session.TokenCodec, string) {
	t.Helper()
	m := session.NewManager(session.NewMemoryStore(), &staticAuth{result: result},
		time.Minute, time.Hour, zerolog.Nop())
	codec := session.NewTokenCodec([]byte(strings.Repeat("k", 32)), "portal")

	s, err := m.Login(context.Background(), "u@example.com", "pw")
	if err != nil {
		t.Fatal(err)
	}
	signed, err := codec.Issue(s)
	if err != nil {
		t.Fatal(err)
	}
	return m, codec, signed
}

func doRequest(mw ...echo.MiddlewareFunc) func(authHeader string) (*httptest.ResponseRecorder, string) {
	e := echo.New()
	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "protected:"+UserIDFromContext(c.Request().Context()))
	}
	e.GET("/p", handler, mw...)

	return func(authHeader string) (*httptest.ResponseRecorder, string) {
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec, rec.Body.String()
	}
}

func TestSessionMiddlewareAuthenticates(t *testing.T) {
	m, codec, signed := testStack(t, &session.LoginResult{UserID: "u1", Role: "patient", AccessToken: "bk-tok"})

	var gotToken string
	e := echo.New()
	e.GET("/p", func(c echo.Context) error {
		gotToken = upstream.TokenFromContext(c.Request().Context())
		return c.String(http.StatusOK, RoleFromContext(c.Request().Context()))
	}, SessionMiddleware(codec, m))

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "patient" {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
	if gotToken != "bk-tok" {
		t.Errorf("upstream token = %q", gotToken)
	}
}

func TestSessionMiddlewareRejectsMissingAndMalformed(t *testing.T) {
	m, codec, _ := testStack(t, &session.LoginResult{UserID: "u1", Role: "patient"})
	do := doRequest(SessionMiddleware(codec, m))

	for _, header := range []string{"", "Token abc", "Bearer not-a-jwt"} {
		rec, _ := do(header)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}

func TestSessionMiddlewareRejectsRevokedSession(t *testing.T) {
	m, codec, signed := testStack(t, &session.LoginResult{UserID: "u1", Role: "patient"})

	// Revoke every session behind the token.
	if err := m.Logout(context.Background(), mustSessionToken(t, codec, signed)); err != nil {
		t.Fatal(err)
	}

	do := doRequest(SessionMiddleware(codec, m))
	rec, _ := do("Bearer " + signed)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 after logout", rec.Code)
	}
}

func mustSessionToken(t *testing.T, codec *session.TokenCodec, signed string) string {
	t.Helper()
	opaque, err := codec.Verify(signed)
	if err != nil {
		t.Fatal(err)
	}
	return opaque
}

func TestRequireRoleAllowsMemberAndAdmin(t *testing.T) {
	for _, role := range []string{"provider", "admin"} {
		m, codec, signed := testStack(t, &session.LoginResult{UserID: "u1", Role: role})
		do := doRequest(SessionMiddleware(codec, m), RequireRole("provider"))
		rec, body := do("Bearer " + signed)
		if rec.Code != http.StatusOK {
			t.Errorf("role %q: status = %d", role, rec.Code)
		}
		if !strings.HasPrefix(body, "protected:") {
			t.Errorf("role %q: body = %q", role, body)
		}
	}
}

func TestRequireRoleRejectsNonMember(t *testing.T) {
	m, codec, signed := testStack(t, &session.LoginResult{UserID: "u1", Role: "patient"})
	do := doRequest(SessionMiddleware(codec, m), RequireRole("provider", "compliance"))

	rec, body := do("Bearer " + signed)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if strings.Contains(body, "protected:") {
		t.Error("protected payload leaked to non-member role")
	}
}

func TestRequireRoleRejectsPending2FASession(t *testing.T) {
	m, codec, signed := testStack(t, &session.LoginResult{Requires2FA: true, UserID: "u1"})
	do := doRequest(SessionMiddleware(codec, m), RequireRole("patient"))

	rec, body := do("Bearer " + signed)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for pending-2fa session", rec.Code)
	}
	if strings.Contains(body, "protected:") {
		t.Error("protected payload leaked to pending-2fa session")
	}
}

func TestSessionMiddlewareResolverFailure(t *testing.T) {
	codec := session.NewTokenCodec([]byte(strings.Repeat("k", 32)), "portal")
	failing := resolverFunc(func(context.Context, string) (*session.Session, error) {
		return nil, errors.New("store down")
	})
	s := &session.Session{Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}
	signed, _ := codec.Issue(s)

	do := doRequest(SessionMiddleware(codec, failing))
	rec, _ := do("Bearer " + signed)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

type resolverFunc func(ctx context.Context, token string) (*session.Session, error)

func (f resolverFunc) Resolve(ctx context.Context, token string) (*session.Session, error) {
	return f(ctx, token)
}

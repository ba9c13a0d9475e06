package records

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carelink/portal/internal/platform/auth"
	"github.com/carelink/portal/internal/platform/upstream"
)

func asUser(userID, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, auth.UserIDKey, userID)
			ctx = context.WithValue(ctx, auth.UserRoleKey, role)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func newTestServer(t *testing.T, upstreamHandler http.Handler, userID, role string) *echo.Echo {
	t.Helper()
	srv := httptest.NewServer(upstreamHandler)
	t.Cleanup(srv.Close)

	api := upstream.NewClient(srv.URL, 5*time.Second, zerolog.Nop())
	e := echo.New()
	group := e.Group("/api", asUser(userID, role))
	NewHandler(NewClient(api)).RegisterRoutes(group)
	return e
}

func TestListForwardsFilters(t *testing.T) {
	var gotQuery string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[{"id":"r1","type":"lab","status":"final"}]`))
	})
	e := newTestServer(t, h, "p1", auth.RolePatient)

	req := httptest.NewRequest(http.MethodGet, "/api/records?type=lab&status=final&critical=true", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	for _, want := range []string{"type=lab", "status=final", "critical=true"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("upstream query %q missing %s", gotQuery, want)
		}
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	called := false
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	e := newTestServer(t, h, "p1", auth.RolePatient)

	req := httptest.NewRequest(http.MethodGet, "/api/records?status=draft", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if called {
		t.Error("invalid filter reached the backend")
	}
}

func TestAttachmentReturnsShortLivedURL(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthcare/records/r1/attachment" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"url":"https://files.example/abc","expires_at":"2026-08-23T12:00:00Z"}`))
	})
	e := newTestServer(t, h, "p1", auth.RolePatient)

	req := httptest.NewRequest(http.MethodGet, "/api/records/r1/attachment", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var att Attachment
	if err := json.Unmarshal(rec.Body.Bytes(), &att); err != nil {
		t.Fatal(err)
	}
	if att.URL != "https://files.example/abc" {
		t.Errorf("url = %q", att.URL)
	}
}

func TestPharmcoRoleBlocked(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"r1","note":"protected"}]`))
	})
	e := newTestServer(t, h, "u1", auth.RolePharmco)

	req := httptest.NewRequest(http.MethodGet, "/api/records?patient_id=p1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "protected") {
		t.Error("403 response leaked record data")
	}
}

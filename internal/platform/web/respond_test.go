package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/carelink/portal/internal/platform/upstream"
)

func render(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorBody) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if rerr := RenderError(c, err); rerr != nil {
		e.HTTPErrorHandler(rerr, c)
	}
	var body ErrorBody
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestRenderErrorUpstreamStatusPreserved(t *testing.T) {
	rec, body := render(t, &upstream.Error{
		Op:      "get appointment",
		Status:  http.StatusNotFound,
		Message: "Appointment not found.",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
	if body.Message != "Appointment not found." {
		t.Errorf("message = %q", body.Message)
	}
}

func TestRenderErrorTransportBecomes502(t *testing.T) {
	rec, _ := render(t, &upstream.Error{
		Op:        "list appointments",
		Transport: true,
		Message:   "backend unreachable",
		Err:       errors.New("dial tcp: connection refused"),
	})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestRenderErrorFieldErrorsCarried(t *testing.T) {
	_, body := render(t, &upstream.Error{
		Op:     "register patient",
		Status: http.StatusBadRequest,
		Fields: []upstream.FieldError{{Field: "email", Message: "already registered"}},
	})
	if len(body.FieldErrors) != 1 || body.FieldErrors[0].Field != "email" {
		t.Errorf("field errors = %+v", body.FieldErrors)
	}
}

func TestRenderErrorUnknownBecomes500(t *testing.T) {
	rec, _ := render(t, errors.New("boom"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestValidationError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = ValidationError(c, upstream.FieldError{Field: "password_confirm", Message: "Passwords do not match."})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
	var body ErrorBody
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.FieldErrors) != 1 || body.FieldErrors[0].Field != "password_confirm" {
		t.Errorf("field errors = %+v", body.FieldErrors)
	}
}

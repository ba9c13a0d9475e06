// Package web holds the response conventions shared by every portal handler.
package web

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/portal/internal/platform/upstream"
)

// ErrorBody is the single error shape the portal returns to the browser,
// regardless of which envelope the backend produced.
type ErrorBody struct {
	Message     string                `json:"message"`
	FieldErrors []upstream.FieldError `json:"field_errors,omitempty"`
}

// ValidationError renders a 400 with field-level errors. Used for portal-side
// validation that rejects a request before any upstream call is made.
func ValidationError(c echo.Context, fields ...upstream.FieldError) error {
	return c.JSON(http.StatusBadRequest, ErrorBody{
		Message:     "Please correct the highlighted fields.",
		FieldErrors: fields,
	})
}

// RenderError maps a failure to the portal error shape. Backend HTTP errors
// keep their status, transport failures become 502, and echo errors pass
// through unchanged.
func RenderError(c echo.Context, err error) error {
	if ue, ok := upstream.AsError(err); ok {
		if ue.Transport {
			return c.JSON(http.StatusBadGateway, ErrorBody{
				Message: "The clinical service is temporarily unavailable.",
			})
		}
		return c.JSON(ue.Status, ErrorBody{
			Message:     ue.Message,
			FieldErrors: ue.Fields,
		})
	}
	if he, ok := err.(*echo.HTTPError); ok {
		return he
	}
	return c.JSON(http.StatusInternalServerError, ErrorBody{
		Message: "An unexpected error occurred.",
	})
}

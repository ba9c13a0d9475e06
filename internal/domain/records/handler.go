package records

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/carelink/portal/internal/platform/auth"
	"github.com/carelink/portal/internal/platform/web"
	"github.com/carelink/portal/pkg/pagination"
)

type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(
		auth.RolePatient, auth.RoleCaregiver, auth.RoleProvider, auth.RoleResearcher))
	read.GET("/records", h.List)
	read.GET("/records/:id", h.Get)
	read.GET("/records/:id/attachment", h.Attachment)
}

func patientID(c echo.Context) string {
	ctx := c.Request().Context()
	if auth.RoleFromContext(ctx) == auth.RolePatient {
		return auth.UserIDFromContext(ctx)
	}
	return c.QueryParam("patient_id")
}

func (h *Handler) List(c echo.Context) error {
	pid := patientID(c)
	if pid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}

	params := pagination.FromContext(c).Query(url.Values{})
	if typ := c.QueryParam("type"); typ != "" {
		params.Set("type", typ)
	}
	if status := c.QueryParam("status"); status != "" {
		if !ValidStatus(status) {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown status: "+status)
		}
		params.Set("status", status)
	}
	if c.QueryParam("critical") == "true" {
		params.Set("critical", "true")
	}

	data, err := h.client.ListByPatient(c.Request().Context(), pid, params)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) Get(c echo.Context) error {
	data, err := h.client.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) Attachment(c echo.Context) error {
	att, err := h.client.AttachmentURL(c.Request().Context(), c.Param("id"))
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSON(http.StatusOK, att)
}

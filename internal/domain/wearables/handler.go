package wearables

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/carelink/portal/internal/platform/auth"
	"github.com/carelink/portal/internal/platform/web"
)

type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(
		auth.RolePatient, auth.RoleCaregiver, auth.RoleProvider, auth.RoleResearcher))
	g.GET("/wearables/devices", h.Devices)
	g.GET("/wearables/devices/:id/readings", h.Readings)
	g.POST("/wearables/devices/:id/sync", h.TriggerSync)

	api.GET("/wearables/summary", h.Summary, auth.RequireRole(auth.RoleResearcher))
}

func (h *Handler) Devices(c echo.Context) error {
	pid := c.QueryParam("patient_id")
	if auth.RoleFromContext(c.Request().Context()) == auth.RolePatient {
		pid = auth.UserIDFromContext(c.Request().Context())
	}
	data, err := h.client.Devices(c.Request().Context(), pid)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) Readings(c echo.Context) error {
	params := url.Values{}
	for _, name := range []string{"metric", "from", "to", "resolution"} {
		if v := c.QueryParam(name); v != "" {
			params.Set(name, v)
		}
	}
	data, err := h.client.Readings(c.Request().Context(), c.Param("id"), params)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) TriggerSync(c echo.Context) error {
	data, err := h.client.TriggerSync(c.Request().Context(), c.Param("id"))
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusAccepted, data)
}

func (h *Handler) Summary(c echo.Context) error {
	params := url.Values{}
	if cohort := c.QueryParam("cohort"); cohort != "" {
		params.Set("cohort", cohort)
	}
	data, err := h.client.Summary(c.Request().Context(), params)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

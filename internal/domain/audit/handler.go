package audit

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/carelink/portal/internal/platform/auth"
	"github.com/carelink/portal/internal/platform/upstream"
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
	api.GET("/audit/logs", h.List, auth.RequireRole(auth.RoleCompliance))
	api.POST("/audit/logs", h.Create, auth.RequireRole(auth.RoleCompliance))
}

func (h *Handler) List(c echo.Context) error {
	params := pagination.FromContext(c).Query(url.Values{})
	for _, name := range []string{"actor_id", "action", "from", "to"} {
		if v := c.QueryParam(name); v != "" {
			params.Set(name, v)
		}
	}
	data, err := h.client.List(c.Request().Context(), params)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) Create(c echo.Context) error {
	var entry Entry
	if err := c.Bind(&entry); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if entry.Action == "" {
		return web.ValidationError(c, upstream.FieldError{
			Field: "action", Message: "An action is required.",
		})
	}
	if entry.ActorID == "" {
		entry.ActorID = auth.UserIDFromContext(c.Request().Context())
	}
	data, err := h.client.Create(c.Request().Context(), entry)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusCreated, data)
}

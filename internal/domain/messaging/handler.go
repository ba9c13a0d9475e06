package messaging

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
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Messaging is open to every portal role; the backend scopes conversations
// to their participants.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(
		auth.RolePatient, auth.RoleCaregiver, auth.RoleProvider,
		auth.RolePharmco, auth.RoleResearcher, auth.RoleCompliance))
	g.GET("/conversations", h.Conversations)
	g.GET("/conversations/:id", h.Conversation)
	g.GET("/conversations/:id/messages", h.Messages)
	g.POST("/conversations/:id/messages", h.SendMessage)
	g.POST("/conversations/:id/read", h.MarkRead)
	g.GET("/notifications", h.Notifications)
	g.GET("/unread", h.UnreadCounts)
}

func (h *Handler) Conversations(c echo.Context) error {
	params := pagination.FromContext(c).Query(url.Values{})
	data, err := h.svc.Conversations(c.Request().Context(), params)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) Conversation(c echo.Context) error {
	data, err := h.svc.Conversation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) Messages(c echo.Context) error {
	params := pagination.FromContext(c).Query(url.Values{})
	data, err := h.svc.Messages(c.Request().Context(), c.Param("id"), params)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) SendMessage(c echo.Context) error {
	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Body == "" {
		return web.ValidationError(c, upstream.FieldError{
			Field: "body", Message: "A message body is required.",
		})
	}
	data, err := h.svc.SendMessage(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusCreated, data)
}

func (h *Handler) MarkRead(c echo.Context) error {
	data, err := h.svc.MarkRead(c.Request().Context(), c.Param("id"))
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) Notifications(c echo.Context) error {
	params := pagination.FromContext(c).Query(url.Values{})
	if c.QueryParam("unread") == "true" {
		params.Set("unread", "true")
	}
	data, err := h.svc.Notifications(c.Request().Context(), params)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) UnreadCounts(c echo.Context) error {
	counts, err := h.svc.UnreadCounts(c.Request().Context())
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSON(http.StatusOK, counts)
}

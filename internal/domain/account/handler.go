package account

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/carelink/portal/internal/domain/audit"
	"github.com/carelink/portal/internal/platform/auth"
	"github.com/carelink/portal/internal/platform/session"
	"github.com/carelink/portal/internal/platform/upstream"
	"github.com/carelink/portal/internal/platform/web"
	"github.com/carelink/portal/pkg/pagination"
)

var registrableRoles = map[string]bool{
	auth.RolePatient:    true,
	auth.RoleCaregiver:  true,
	auth.RoleProvider:   true,
	auth.RolePharmco:    true,
	auth.RoleResearcher: true,
	auth.RoleCompliance: true,
}

type Handler struct {
	client       *Client
	sessions     *session.Manager
	codec        *session.TokenCodec
	audit        *audit.Client
	cookieMaxAge int
}

func NewHandler(client *Client, sessions *session.Manager, codec *session.TokenCodec, auditClient *audit.Client, cookieMaxAge int) *Handler {
	return &Handler{
		client:       client,
		sessions:     sessions,
		codec:        codec,
		audit:        auditClient,
		cookieMaxAge: cookieMaxAge,
	}
}

// RegisterRoutes mounts the account surface. public carries no session
// middleware; api requires a resolved session.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.POST("/auth/register/:role", h.Register)
	public.POST("/auth/login", h.Login)

	api.POST("/auth/2fa/verify", h.Verify2FA)
	api.POST("/auth/logout", h.Logout)

	self := api.Group("", auth.RequireRole(
		auth.RolePatient, auth.RoleCaregiver, auth.RoleProvider,
		auth.RolePharmco, auth.RoleResearcher, auth.RoleCompliance))
	self.GET("/users/profile", h.Profile)
	self.PUT("/users/profile", h.UpdateProfile)
	self.PUT("/users/consent", h.UpdateConsent)
	self.POST("/security/2fa/enable", h.Enable2FA)
	self.POST("/security/2fa/confirm", h.Confirm2FA)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/users/pending", h.PendingUsers)
	admin.POST("/users/:id/approve", h.Approve)
}

func (h *Handler) Register(c echo.Context) error {
	role := c.Param("role")
	if !registrableRoles[role] {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown role: "+role)
	}

	var req RegistrationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if errs := ValidateRegistration(req); len(errs) > 0 {
		return web.ValidationError(c, errs...)
	}

	data, err := h.client.Register(c.Request().Context(), role, req)
	if err != nil {
		return web.RenderError(c, err)
	}

	h.audit.Record(c.Request().Context(), audit.Entry{
		Action: audit.ActionRegistration,
		Detail: "role=" + role,
	})
	return c.JSONBlob(http.StatusCreated, data)
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" || req.Password == "" {
		return web.ValidationError(c,
			upstream.FieldError{Field: "email", Message: "Email and password are required."})
	}

	s, err := h.sessions.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return web.RenderError(c, err)
	}

	token, err := h.codec.Issue(s)
	if err != nil {
		return web.RenderError(c, err)
	}

	if s.State == session.StatePending2FA {
		// No authenticated user yet: the response names no identity and
		// sets no role cookie until the second factor clears.
		return c.JSON(http.StatusOK, map[string]interface{}{
			"requires_2fa": true,
			"token":        token,
		})
	}

	c.SetCookie(session.RoleCookie(s.Role, h.cookieMaxAge))
	h.audit.Record(upstream.WithToken(c.Request().Context(), s.UpstreamAccessToken), audit.Entry{
		ActorID: s.UserID,
		Action:  audit.ActionLogin,
	})
	return c.JSON(http.StatusOK, map[string]interface{}{
		"token":   token,
		"user_id": s.UserID,
		"role":    s.Role,
	})
}

func (h *Handler) Verify2FA(c echo.Context) error {
	var body struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.Code == "" {
		return web.ValidationError(c,
			upstream.FieldError{Field: "code", Message: "A verification code is required."})
	}

	s := auth.SessionFromContext(c.Request().Context())
	if s == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}

	s, err := h.sessions.Verify2FA(c.Request().Context(), s.Token, body.Code)
	if err != nil {
		if err == session.ErrNotPending {
			return echo.NewHTTPError(http.StatusConflict, "session is not awaiting verification")
		}
		return web.RenderError(c, err)
	}

	token, err := h.codec.Issue(s)
	if err != nil {
		return web.RenderError(c, err)
	}

	c.SetCookie(session.RoleCookie(s.Role, h.cookieMaxAge))
	h.audit.Record(upstream.WithToken(c.Request().Context(), s.UpstreamAccessToken), audit.Entry{
		ActorID: s.UserID,
		Action:  audit.ActionLogin,
		Detail:  "2fa",
	})
	return c.JSON(http.StatusOK, map[string]interface{}{
		"token":   token,
		"user_id": s.UserID,
		"role":    s.Role,
	})
}

func (h *Handler) Logout(c echo.Context) error {
	s := auth.SessionFromContext(c.Request().Context())
	if s != nil {
		if err := h.sessions.Logout(c.Request().Context(), s.Token); err != nil {
			return web.RenderError(c, err)
		}
		if s.UserID != "" {
			h.audit.Record(c.Request().Context(), audit.Entry{
				ActorID: s.UserID,
				Action:  audit.ActionLogout,
			})
		}
	}
	c.SetCookie(session.ClearRoleCookie())
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Profile(c echo.Context) error {
	data, err := h.client.Profile(c.Request().Context())
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	var update ProfileUpdate
	if err := c.Bind(&update); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	data, err := h.client.UpdateProfile(c.Request().Context(), update)
	if err != nil {
		return web.RenderError(c, err)
	}
	h.audit.Record(c.Request().Context(), audit.Entry{
		ActorID: auth.UserIDFromContext(c.Request().Context()),
		Action:  audit.ActionProfileChange,
	})
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) UpdateConsent(c echo.Context) error {
	var flags ConsentFlags
	if err := c.Bind(&flags); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	data, err := h.client.UpdateConsent(c.Request().Context(), flags)
	if err != nil {
		return web.RenderError(c, err)
	}
	h.audit.Record(c.Request().Context(), audit.Entry{
		ActorID: auth.UserIDFromContext(c.Request().Context()),
		Action:  audit.ActionConsentChange,
	})
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) Enable2FA(c echo.Context) error {
	data, err := h.client.Enable2FA(c.Request().Context())
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) Confirm2FA(c echo.Context) error {
	var body struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	data, err := h.client.Confirm2FA(c.Request().Context(), body.Code)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) PendingUsers(c echo.Context) error {
	params := pagination.FromContext(c).Query(url.Values{})
	data, err := h.client.PendingUsers(c.Request().Context(), params)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) Approve(c echo.Context) error {
	data, err := h.client.Approve(c.Request().Context(), c.Param("id"))
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

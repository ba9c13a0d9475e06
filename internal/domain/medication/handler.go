package medication

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
	care := api.Group("", auth.RequireRole(auth.RolePatient, auth.RoleCaregiver, auth.RoleProvider))
	care.GET("/medications", h.List)
	care.GET("/medications/:id", h.Get)
	care.GET("/medications/:id/adherence", h.Adherence)
	care.POST("/medications/:id/adherence", h.LogAdherence)
	care.POST("/medications/:id/side-effects", h.ReportSideEffect)
	care.POST("/medications/:id/refill", h.RequestRefill)

	pharma := api.Group("", auth.RequireRole(auth.RolePharmco))
	pharma.GET("/medications/usage", h.UsageSummary)
	pharma.GET("/medications/side-effects", h.SideEffectReports)
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
	if c.QueryParam("active") == "true" {
		params.Set("active", "true")
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

func (h *Handler) Adherence(c echo.Context) error {
	params := pagination.FromContext(c).Query(url.Values{})
	data, err := h.client.Adherence(c.Request().Context(), c.Param("id"), params)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) LogAdherence(c echo.Context) error {
	var req AdherenceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	data, err := h.client.LogAdherence(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusCreated, data)
}

func (h *Handler) ReportSideEffect(c echo.Context) error {
	var report SideEffectReport
	if err := c.Bind(&report); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if report.Description == "" {
		return web.ValidationError(c, upstream.FieldError{
			Field: "description", Message: "A description of the side effect is required.",
		})
	}
	if report.Severity != "" && !ValidSeverity(report.Severity) {
		return web.ValidationError(c, upstream.FieldError{
			Field: "severity", Message: "Severity must be mild, moderate, or severe.",
		})
	}
	data, err := h.client.ReportSideEffect(c.Request().Context(), c.Param("id"), report)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusCreated, data)
}

func (h *Handler) RequestRefill(c echo.Context) error {
	data, err := h.client.RequestRefill(c.Request().Context(), c.Param("id"))
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusCreated, data)
}

func (h *Handler) UsageSummary(c echo.Context) error {
	params := url.Values{}
	if m := c.QueryParam("medication"); m != "" {
		params.Set("medication", m)
	}
	data, err := h.client.UsageSummary(c.Request().Context(), params)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) SideEffectReports(c echo.Context) error {
	params := pagination.FromContext(c).Query(url.Values{})
	if sev := c.QueryParam("severity"); sev != "" {
		if !ValidSeverity(sev) {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown severity: "+sev)
		}
		params.Set("severity", sev)
	}
	data, err := h.client.SideEffectReports(c.Request().Context(), params)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

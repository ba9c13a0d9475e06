package appointment

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/carelink/portal/internal/platform/auth"
	"github.com/carelink/portal/internal/platform/web"
	"github.com/carelink/portal/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RolePatient, auth.RoleCaregiver, auth.RoleProvider))
	read.GET("/appointments", h.List)
	read.GET("/appointments/upcoming", h.Upcoming)
	read.GET("/appointments/:id", h.Get)

	write := api.Group("", auth.RequireRole(auth.RolePatient, auth.RoleCaregiver, auth.RoleProvider))
	write.POST("/appointments", h.Schedule)
	write.PUT("/appointments/:id", h.Update)
	write.POST("/appointments/:id/cancel", h.Cancel)

	api.POST("/appointments/:id/check-in", h.CheckIn,
		auth.RequireRole(auth.RolePatient, auth.RoleProvider))
	api.POST("/appointments/:id/complete", h.Complete,
		auth.RequireRole(auth.RoleProvider))
	api.GET("/providers/:id/schedule", h.ProviderSchedule,
		auth.RequireRole(auth.RoleProvider))

	tele := api.Group("", auth.RequireRole(auth.RolePatient, auth.RoleProvider))
	tele.POST("/telemedicine/sessions", h.CreateTelemedicineSession)
	tele.POST("/telemedicine/sessions/:id/join", h.JoinTelemedicineSession)
}

// patientID resolves which patient's data the request targets. Patients are
// pinned to their own id regardless of what the query says.
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
	if status := c.QueryParam("status"); status != "" {
		if !ValidStatus(status) {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown status: "+status)
		}
		params.Set("status", status)
	}

	data, err := h.svc.ListByPatient(c.Request().Context(), pid, params)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) Upcoming(c echo.Context) error {
	pid := patientID(c)
	if pid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	data, err := h.svc.Upcoming(c.Request().Context(), pid)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) Get(c echo.Context) error {
	data, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) Schedule(c echo.Context) error {
	var req ScheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if auth.RoleFromContext(c.Request().Context()) == auth.RolePatient {
		req.PatientID = auth.UserIDFromContext(c.Request().Context())
	}
	data, err := h.svc.Schedule(c.Request().Context(), req)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusCreated, data)
}

func (h *Handler) Update(c echo.Context) error {
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	data, err := h.svc.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) Cancel(c echo.Context) error {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	data, err := h.svc.Cancel(c.Request().Context(), c.Param("id"), body.Reason)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) CheckIn(c echo.Context) error {
	data, err := h.svc.CheckIn(c.Request().Context(), c.Param("id"))
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) Complete(c echo.Context) error {
	data, err := h.svc.Complete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) ProviderSchedule(c echo.Context) error {
	data, err := h.svc.ProviderSchedule(c.Request().Context(), c.Param("id"), c.QueryParam("date"))
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (h *Handler) CreateTelemedicineSession(c echo.Context) error {
	var body struct {
		AppointmentID string `json:"appointment_id"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.AppointmentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "appointment_id is required")
	}
	data, err := h.svc.CreateTelemedicineSession(c.Request().Context(), body.AppointmentID)
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusCreated, data)
}

func (h *Handler) JoinTelemedicineSession(c echo.Context) error {
	data, err := h.svc.JoinTelemedicineSession(c.Request().Context(), c.Param("id"))
	if err != nil {
		return web.RenderError(c, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

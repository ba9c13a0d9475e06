package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/carelink/portal/internal/domain/account"
	"github.com/carelink/portal/internal/domain/appointment"
	"github.com/carelink/portal/internal/domain/audit"
	"github.com/carelink/portal/internal/domain/medication"
	"github.com/carelink/portal/internal/domain/messaging"
	"github.com/carelink/portal/internal/domain/records"
	"github.com/carelink/portal/internal/domain/wearables"
	"github.com/carelink/portal/internal/platform/auth"
)

// Handler serves one dashboard endpoint; the widget set is chosen by the
// session's role, so a user can never request another role's dashboard.
type Handler struct {
	appointments *appointment.Service
	medications  *medication.Client
	records      *records.Client
	messaging    *messaging.Service
	wearables    *wearables.Client
	audit        *audit.Client
	accounts     *account.Client
}

func NewHandler(
	appointments *appointment.Service,
	medications *medication.Client,
	recordsClient *records.Client,
	messagingSvc *messaging.Service,
	wearablesClient *wearables.Client,
	auditClient *audit.Client,
	accounts *account.Client,
) *Handler {
	return &Handler{
		appointments: appointments,
		medications:  medications,
		records:      recordsClient,
		messaging:    messagingSvc,
		wearables:    wearablesClient,
		audit:        auditClient,
		accounts:     accounts,
	}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard", h.Dashboard, auth.RequireRole(
		auth.RolePatient, auth.RoleCaregiver, auth.RoleProvider,
		auth.RolePharmco, auth.RoleResearcher, auth.RoleCompliance))
}

func (h *Handler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	userID := auth.UserIDFromContext(ctx)
	role := auth.RoleFromContext(ctx)

	widgets := h.widgetsFor(role, userID)
	if widgets == nil {
		return echo.NewHTTPError(http.StatusForbidden, "no dashboard for role: "+role)
	}
	return c.JSON(http.StatusOK, Assemble(ctx, widgets))
}

func (h *Handler) widgetsFor(role, userID string) []Widget {
	switch role {
	case auth.RolePatient:
		return h.patientWidgets(userID)
	case auth.RoleCaregiver:
		return h.caregiverWidgets(userID)
	case auth.RoleProvider:
		return h.providerWidgets(userID)
	case auth.RoleCompliance:
		return h.complianceWidgets()
	case auth.RolePharmco:
		return h.pharmaWidgets()
	case auth.RoleResearcher:
		return h.researcherWidgets()
	case auth.RoleAdmin:
		// Admin sees the compliance view; there is no separate admin page.
		return h.complianceWidgets()
	}
	return nil
}

func (h *Handler) patientWidgets(userID string) []Widget {
	return []Widget{
		{Name: "upcoming_appointments", Load: func(ctx context.Context) ([]byte, error) {
			return h.appointments.Upcoming(ctx, userID)
		}},
		{Name: "medications", Load: func(ctx context.Context) ([]byte, error) {
			return h.medications.ListByPatient(ctx, userID, url.Values{"active": []string{"true"}})
		}},
		{Name: "recent_records", Load: func(ctx context.Context) ([]byte, error) {
			return h.records.ListByPatient(ctx, userID, url.Values{"limit": []string{"5"}})
		}},
		{Name: "unread", Load: h.unreadLoader()},
	}
}

func (h *Handler) caregiverWidgets(userID string) []Widget {
	return []Widget{
		{Name: "dependents_appointments", Load: func(ctx context.Context) ([]byte, error) {
			return h.appointments.ListByCaregiver(ctx, userID, url.Values{})
		}},
		{Name: "dependents_medications", Load: func(ctx context.Context) ([]byte, error) {
			return h.medications.ListByCaregiver(ctx, userID, url.Values{})
		}},
		{Name: "notifications", Load: func(ctx context.Context) ([]byte, error) {
			return h.messaging.Notifications(ctx, url.Values{"unread": []string{"true"}})
		}},
	}
}

func (h *Handler) providerWidgets(userID string) []Widget {
	today := time.Now().Format("2006-01-02")
	return []Widget{
		{Name: "todays_schedule", Load: func(ctx context.Context) ([]byte, error) {
			return h.appointments.ProviderSchedule(ctx, userID, today)
		}},
		{Name: "pending_check_ins", Load: func(ctx context.Context) ([]byte, error) {
			return h.appointments.PendingCheckIns(ctx, userID)
		}},
		{Name: "unread", Load: h.unreadLoader()},
		{Name: "recent_labs", Load: func(ctx context.Context) ([]byte, error) {
			return h.records.RecentLabs(ctx, userID)
		}},
	}
}

func (h *Handler) complianceWidgets() []Widget {
	return []Widget{
		{Name: "audit_activity", Load: func(ctx context.Context) ([]byte, error) {
			return h.audit.List(ctx, url.Values{"limit": []string{"20"}})
		}},
		{Name: "consent_status", Load: func(ctx context.Context) ([]byte, error) {
			return h.accounts.ConsentSummary(ctx)
		}},
		{Name: "access_summary", Load: func(ctx context.Context) ([]byte, error) {
			return h.audit.List(ctx, url.Values{"action": []string{audit.ActionRecordAccessed}})
		}},
	}
}

func (h *Handler) pharmaWidgets() []Widget {
	return []Widget{
		{Name: "medication_usage", Load: func(ctx context.Context) ([]byte, error) {
			return h.medications.UsageSummary(ctx, url.Values{})
		}},
		{Name: "side_effect_reports", Load: func(ctx context.Context) ([]byte, error) {
			return h.medications.SideEffectReports(ctx, url.Values{"limit": []string{"20"}})
		}},
	}
}

func (h *Handler) researcherWidgets() []Widget {
	return []Widget{
		{Name: "cohort_records", Load: func(ctx context.Context) ([]byte, error) {
			return h.records.CohortSummary(ctx, url.Values{})
		}},
		{Name: "wearable_data", Load: func(ctx context.Context) ([]byte, error) {
			return h.wearables.Summary(ctx, url.Values{})
		}},
	}
}

func (h *Handler) unreadLoader() Loader {
	return func(ctx context.Context) ([]byte, error) {
		counts, err := h.messaging.UnreadCounts(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(counts)
	}
}

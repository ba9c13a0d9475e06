package medication

import (
	"context"
	"net/url"

	"github.com/carelink/portal/internal/platform/upstream"
)

// Client is the canonical medication client: medications, adherence,
// side-effect reports, and refill requests all live here.
type Client struct {
	api *upstream.Client
}

func NewClient(api *upstream.Client) *Client {
	return &Client{api: api}
}

func (c *Client) ListByPatient(ctx context.Context, patientID string, params url.Values) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("medication", "patients", patientID, "medications"), upstream.Options{
		Op:     "list medications",
		Params: params,
	})
}

// ListByCaregiver lists medications across a caregiver's dependents.
func (c *Client) ListByCaregiver(ctx context.Context, caregiverID string, params url.Values) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("medication", "caregivers", caregiverID, "medications"), upstream.Options{
		Op:     "list dependents' medications",
		Params: params,
	})
}

func (c *Client) Get(ctx context.Context, id string) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("medication", "medications", id), upstream.Options{
		Op: "get medication",
	})
}

func (c *Client) Adherence(ctx context.Context, medicationID string, params url.Values) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("medication", "medications", medicationID, "adherence"), upstream.Options{
		Op:     "list adherence records",
		Params: params,
	})
}

func (c *Client) LogAdherence(ctx context.Context, medicationID string, req AdherenceRequest) ([]byte, error) {
	return c.api.Post(ctx, upstream.Path("medication", "medications", medicationID, "adherence"), upstream.Options{
		Op:   "log adherence",
		Body: req,
	})
}

func (c *Client) ReportSideEffect(ctx context.Context, medicationID string, report SideEffectReport) ([]byte, error) {
	return c.api.Post(ctx, upstream.Path("medication", "medications", medicationID, "side-effects"), upstream.Options{
		Op:   "report side effect",
		Body: report,
	})
}

func (c *Client) RequestRefill(ctx context.Context, medicationID string) ([]byte, error) {
	return c.api.Post(ctx, upstream.Path("medication", "medications", medicationID, "refill"), upstream.Options{
		Op: "request refill",
	})
}

// UsageSummary is the aggregate view the pharma dashboard renders.
func (c *Client) UsageSummary(ctx context.Context, params url.Values) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("medication", "usage"), upstream.Options{
		Op:     "fetch medication usage summary",
		Params: params,
	})
}

// SideEffectReports lists reported side effects across patients.
func (c *Client) SideEffectReports(ctx context.Context, params url.Values) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("medication", "side-effects"), upstream.Options{
		Op:     "list side effect reports",
		Params: params,
	})
}

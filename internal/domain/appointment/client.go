package appointment

import (
	"context"
	"net/url"

	"github.com/carelink/portal/internal/platform/upstream"
)

// Client is the canonical appointment client: every appointment and
// telemedicine operation goes through here, one typed method per endpoint.
// Methods validate nothing beyond what the path needs and attach a static
// operation description for error context.
type Client struct {
	api *upstream.Client
}

func NewClient(api *upstream.Client) *Client {
	return &Client{api: api}
}

func (c *Client) ListByPatient(ctx context.Context, patientID string, params url.Values) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("healthcare", "patients", patientID, "appointments"), upstream.Options{
		Op:     "list patient appointments",
		Params: params,
	})
}

func (c *Client) Upcoming(ctx context.Context, patientID string) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("healthcare", "patients", patientID, "appointments", "upcoming"), upstream.Options{
		Op: "list upcoming appointments",
	})
}

// ListByCaregiver lists appointments across a caregiver's dependents.
func (c *Client) ListByCaregiver(ctx context.Context, caregiverID string, params url.Values) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("healthcare", "caregivers", caregiverID, "appointments"), upstream.Options{
		Op:     "list dependents' appointments",
		Params: params,
	})
}

// PendingCheckIns lists today's confirmed-but-not-arrived appointments for a
// provider.
func (c *Client) PendingCheckIns(ctx context.Context, providerID string) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("healthcare", "providers", providerID, "check-ins"), upstream.Options{
		Op: "list pending check-ins",
	})
}

func (c *Client) ProviderSchedule(ctx context.Context, providerID, date string) ([]byte, error) {
	params := url.Values{}
	if date != "" {
		params.Set("date", date)
	}
	return c.api.Get(ctx, upstream.Path("healthcare", "providers", providerID, "schedule"), upstream.Options{
		Op:     "fetch provider schedule",
		Params: params,
	})
}

func (c *Client) Get(ctx context.Context, id string) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("healthcare", "appointments", id), upstream.Options{
		Op: "get appointment",
	})
}

func (c *Client) Schedule(ctx context.Context, req ScheduleRequest) ([]byte, error) {
	return c.api.Post(ctx, upstream.Path("healthcare", "appointments"), upstream.Options{
		Op:   "schedule appointment",
		Body: req,
	})
}

func (c *Client) Update(ctx context.Context, id string, req UpdateRequest) ([]byte, error) {
	return c.api.Put(ctx, upstream.Path("healthcare", "appointments", id), upstream.Options{
		Op:   "update appointment",
		Body: req,
	})
}

func (c *Client) Cancel(ctx context.Context, id, reason string) ([]byte, error) {
	return c.api.Post(ctx, upstream.Path("healthcare", "appointments", id, "cancel"), upstream.Options{
		Op:   "cancel appointment",
		Body: map[string]string{"reason": reason},
	})
}

func (c *Client) CheckIn(ctx context.Context, id string) ([]byte, error) {
	return c.api.Post(ctx, upstream.Path("healthcare", "appointments", id, "check-in"), upstream.Options{
		Op: "check in appointment",
	})
}

func (c *Client) Complete(ctx context.Context, id string) ([]byte, error) {
	return c.api.Post(ctx, upstream.Path("healthcare", "appointments", id, "complete"), upstream.Options{
		Op: "complete appointment",
	})
}

func (c *Client) CreateTelemedicineSession(ctx context.Context, appointmentID string) ([]byte, error) {
	return c.api.Post(ctx, upstream.Path("telemedicine", "sessions"), upstream.Options{
		Op:   "create telemedicine session",
		Body: map[string]string{"appointment_id": appointmentID},
	})
}

func (c *Client) JoinTelemedicineSession(ctx context.Context, sessionID string) ([]byte, error) {
	return c.api.Post(ctx, upstream.Path("telemedicine", "sessions", sessionID, "join"), upstream.Options{
		Op: "join telemedicine session",
	})
}

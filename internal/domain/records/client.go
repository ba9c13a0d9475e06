package records

import (
	"context"
	"net/url"

	"github.com/carelink/portal/internal/platform/upstream"
)

// Client is the canonical health-record client. Records are backend-owned
// and read-mostly; the portal never caches them, so every read goes straight
// upstream.
type Client struct {
	api *upstream.Client
}

func NewClient(api *upstream.Client) *Client {
	return &Client{api: api}
}

func (c *Client) ListByPatient(ctx context.Context, patientID string, params url.Values) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("healthcare", "patients", patientID, "records"), upstream.Options{
		Op:     "list health records",
		Params: params,
	})
}

func (c *Client) Get(ctx context.Context, id string) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("healthcare", "records", id), upstream.Options{
		Op: "get health record",
	})
}

// RecentLabs lists a provider's most recent lab results across patients.
func (c *Client) RecentLabs(ctx context.Context, providerID string) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("healthcare", "providers", providerID, "labs", "recent"), upstream.Options{
		Op: "list recent labs",
	})
}

// CohortSummary is the de-identified aggregate view for researchers.
func (c *Client) CohortSummary(ctx context.Context, params url.Values) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("healthcare", "records", "summary"), upstream.Options{
		Op:     "fetch cohort records summary",
		Params: params,
	})
}

// AttachmentURL asks the backend for a short-lived download URL for the
// record's attachment. The portal never proxies the bytes itself.
func (c *Client) AttachmentURL(ctx context.Context, id string) (*Attachment, error) {
	var att Attachment
	_, err := c.api.Get(ctx, upstream.Path("healthcare", "records", id, "attachment"), upstream.Options{
		Op:  "get record attachment url",
		Out: &att,
	})
	if err != nil {
		return nil, err
	}
	return &att, nil
}

// Package wearables wraps the backend's wearable-device endpoints: device
// registry, reading queries, and on-demand sync.
package wearables

import (
	"context"
	"net/url"
	"time"

	"github.com/carelink/portal/internal/platform/upstream"
)

// Device mirrors the backend wearable device resource.
type Device struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patient_id"`
	Kind       string    `json:"kind"`
	Model      string    `json:"model"`
	LastSyncAt time.Time `json:"last_sync_at"`
}

type Client struct {
	api *upstream.Client
}

func NewClient(api *upstream.Client) *Client {
	return &Client{api: api}
}

func (c *Client) Devices(ctx context.Context, patientID string) ([]byte, error) {
	params := url.Values{}
	if patientID != "" {
		params.Set("patient_id", patientID)
	}
	return c.api.Get(ctx, upstream.Path("wearables", "devices"), upstream.Options{
		Op:     "list wearable devices",
		Params: params,
	})
}

// Readings queries time-series readings for one device. metric and the time
// bounds are passed through untouched; the backend owns the series schema.
func (c *Client) Readings(ctx context.Context, deviceID string, params url.Values) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("wearables", "devices", deviceID, "readings"), upstream.Options{
		Op:     "query wearable readings",
		Params: params,
	})
}

// TriggerSync asks the backend to pull fresh data from the device vendor.
func (c *Client) TriggerSync(ctx context.Context, deviceID string) ([]byte, error) {
	return c.api.Post(ctx, upstream.Path("wearables", "devices", deviceID, "sync"), upstream.Options{
		Op: "trigger wearable sync",
	})
}

// Summary is the aggregate the researcher dashboard renders.
func (c *Client) Summary(ctx context.Context, params url.Values) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("wearables", "summary"), upstream.Options{
		Op:     "fetch wearable summary",
		Params: params,
	})
}

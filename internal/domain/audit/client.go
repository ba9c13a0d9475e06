// Package audit wraps the backend audit trail. The trail is append-only from
// the portal's side: entries are created and queried, never updated or
// deleted, and no such operation exists here.
package audit

import (
	"context"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelink/portal/internal/platform/upstream"
)

// Entry is one audit trail record.
type Entry struct {
	ID        string    `json:"id,omitempty"`
	ActorID   string    `json:"actor_id"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Actions the portal records itself.
const (
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionRegistration   = "registration"
	ActionConsentChange  = "consent_change"
	ActionProfileChange  = "profile_change"
	ActionRecordAccessed = "record_accessed"
)

type Client struct {
	api    *upstream.Client
	logger zerolog.Logger
}

func NewClient(api *upstream.Client, logger zerolog.Logger) *Client {
	return &Client{api: api, logger: logger.With().Str("component", "audit").Logger()}
}

func (c *Client) List(ctx context.Context, params url.Values) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("audit", "logs"), upstream.Options{
		Op:     "list audit logs",
		Params: params,
	})
}

func (c *Client) Create(ctx context.Context, entry Entry) ([]byte, error) {
	return c.api.Post(ctx, upstream.Path("audit", "logs"), upstream.Options{
		Op:   "create audit log",
		Body: entry,
	})
}

// Record appends an entry without failing the caller. Audit writes ride
// alongside user-facing operations; a trail hiccup must not break a login.
func (c *Client) Record(ctx context.Context, entry Entry) {
	if _, err := c.Create(ctx, entry); err != nil {
		c.logger.Warn().Err(err).
			Str("action", entry.Action).
			Str("actor_id", entry.ActorID).
			Msg("audit record failed")
	}
}

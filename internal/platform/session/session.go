// Package session owns the portal's authentication state machine. A session
// moves anonymous → pending-2fa → authenticated; it never holds an
// authenticated user while a second factor is outstanding, and it expires
// when idle longer than the configured window.
package session

import (
	"time"

	"github.com/google/uuid"
)

// State is the tagged session state. There are no independent booleans; a
// session is in exactly one state at a time.
type State string

const (
	StateAnonymous     State = "anonymous"
	StatePending2FA    State = "pending-2fa"
	StateAuthenticated State = "authenticated"
)

// Session is one browser session, addressed by an opaque bearer token. The
// upstream access/refresh tokens live here, server-side, never in the
// browser.
type Session struct {
	ID    uuid.UUID `json:"id"`
	Token string    `json:"-"`
	State State     `json:"state"`

	// Populated only when State == StateAuthenticated.
	UserID string `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`

	// Populated only when State == StatePending2FA: the backend named a user
	// awaiting a second factor, but no identity is granted yet.
	PendingUserID string `json:"-"`

	UpstreamAccessToken  string `json:"-"`
	UpstreamRefreshToken string `json:"-"`

	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Authenticated reports whether the session carries a verified identity. A
// pending-2fa session is not authenticated regardless of timing.
func (s *Session) Authenticated() bool {
	return s.State == StateAuthenticated && s.UserID != ""
}

// IdleExpired reports whether the session has been untouched longer than the
// idle window as of now.
func (s *Session) IdleExpired(idle time.Duration, now time.Time) bool {
	return now.Sub(s.LastSeenAt) > idle
}

// Expired reports whether the session passed its absolute lifetime.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrExpired is returned when a session exists but has passed its idle or
// absolute lifetime. The session is deleted before this is returned.
var ErrExpired = errors.New("session expired")

// ErrNotPending is returned when Verify2FA is called on a session that is not
// awaiting a second factor.
var ErrNotPending = errors.New("session is not awaiting two-factor verification")

// LoginResult is what the backend reports for a credential or 2FA check.
type LoginResult struct {
	Requires2FA  bool
	UserID       string
	Role         string
	AccessToken  string
	RefreshToken string
}

// Authenticator performs credential checks against the backend. Implemented
// by the account domain client; the manager never talks HTTP itself.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Verify2FA(ctx context.Context, userID, code string) (*LoginResult, error)
	Logout(ctx context.Context, accessToken string) error
}

// Manager drives session state transitions and enforces idle and absolute
// expiry.
type Manager struct {
	store  Store
	auth   Authenticator
	idle   time.Duration
	maxAge time.Duration
	logger zerolog.Logger
}

// NewManager creates a Manager.
func NewManager(store Store, auth Authenticator, idle, maxAge time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{
		store:  store,
		auth:   auth,
		idle:   idle,
		maxAge: maxAge,
		logger: logger.With().Str("component", "session").Logger(),
	}
}

// newToken returns a 256-bit random opaque token.
func newToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// Login checks credentials upstream and creates a session. When the backend
// answers requires2FA with a user id, the session is created pending-2fa: it
// names no authenticated user and passes no role gate until Verify2FA
// succeeds.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	res, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s := &Session{
		ID:         uuid.New(),
		Token:      token,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(m.maxAge),
	}

	if res.Requires2FA {
		s.State = StatePending2FA
		s.PendingUserID = res.UserID
	} else {
		s.State = StateAuthenticated
		s.UserID = res.UserID
		s.Role = res.Role
		s.UpstreamAccessToken = res.AccessToken
		s.UpstreamRefreshToken = res.RefreshToken
	}

	if err := m.store.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	m.logger.Info().
		Str("session_id", s.ID.String()).
		Str("state", string(s.State)).
		Msg("session created")
	return s, nil
}

// Verify2FA completes the second factor for a pending-2fa session. On
// success the session transitions to authenticated and gains the upstream
// tokens; on failure it stays pending.
func (m *Manager) Verify2FA(ctx context.Context, token, code string) (*Session, error) {
	s, err := m.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if s.State != StatePending2FA {
		return nil, ErrNotPending
	}

	res, err := m.auth.Verify2FA(ctx, s.PendingUserID, code)
	if err != nil {
		return nil, err
	}

	s.State = StateAuthenticated
	s.UserID = res.UserID
	s.Role = res.Role
	s.UpstreamAccessToken = res.AccessToken
	s.UpstreamRefreshToken = res.RefreshToken
	s.PendingUserID = ""
	s.LastSeenAt = time.Now()

	if err := m.store.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	m.logger.Info().Str("session_id", s.ID.String()).Msg("two-factor verified")
	return s, nil
}

// Resolve loads the session for a token, enforcing idle and absolute expiry,
// and touches its last-seen time. Expired sessions are deleted and reported
// as ErrExpired, the forced-logout transition.
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	s, err := m.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	s.LastSeenAt = time.Now()
	if err := m.store.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	return s, nil
}

func (m *Manager) resolve(ctx context.Context, token string) (*Session, error) {
	s, err := m.store.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if s.Expired(now) || s.IdleExpired(m.idle, now) {
		_ = m.store.Delete(ctx, token)
		m.logger.Info().Str("session_id", s.ID.String()).Msg("session expired")
		return nil, ErrExpired
	}
	return s, nil
}

// Logout revokes the backend token (best-effort) and deletes the session.
func (m *Manager) Logout(ctx context.Context, token string) error {
	s, err := m.store.GetByToken(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if s.UpstreamAccessToken != "" {
		if err := m.auth.Logout(ctx, s.UpstreamAccessToken); err != nil {
			m.logger.Warn().Err(err).Str("session_id", s.ID.String()).Msg("upstream logout failed")
		}
	}
	return m.store.Delete(ctx, token)
}

// StartSweep runs a background goroutine that deletes idle-expired and
// absolutely expired sessions on an interval. It stops when the context is
// cancelled.
func (m *Manager) StartSweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := m.store.DeleteExpired(ctx, time.Now(), m.idle)
				if err != nil {
					m.logger.Warn().Err(err).Msg("session sweep failed")
					continue
				}
				if n > 0 {
					m.logger.Debug().Int("deleted", n).Msg("session sweep")
				}
			}
		}
	}()
}

// RoleCookieName is read by edge middleware for role-based page routing.
const RoleCookieName = "user_role"

// RoleCookie builds the role cookie set alongside an authenticated session.
func RoleCookie(role string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     RoleCookieName,
		Value:    role,
		Path:     "/",
		MaxAge:   maxAge,
		SameSite: http.SameSiteStrictMode,
		Secure:   true,
	}
}

// ClearRoleCookie builds the expired cookie that removes the role cookie.
func ClearRoleCookie() *http.Cookie {
	return &http.Cookie{
		Name:     RoleCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteStrictMode,
		Secure:   true,
	}
}

package account

import (
	"context"
	"net/url"

	"github.com/carelink/portal/internal/platform/session"
	"github.com/carelink/portal/internal/platform/upstream"
)

// Client wraps the backend's auth, users, and security families. It also
// implements session.Authenticator, so the session manager drives its state
// machine through this client without knowing about HTTP.
type Client struct {
	api *upstream.Client
}

func NewClient(api *upstream.Client) *Client {
	return &Client{api: api}
}

// loginEnvelope is the backend's login/2FA response shape.
type loginEnvelope struct {
	Requires2FA  bool   `json:"requires_2fa"`
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (e loginEnvelope) result() *session.LoginResult {
	return &session.LoginResult{
		Requires2FA:  e.Requires2FA,
		UserID:       e.UserID,
		Role:         e.Role,
		AccessToken:  e.AccessToken,
		RefreshToken: e.RefreshToken,
	}
}

// Login checks credentials against the backend.
func (c *Client) Login(ctx context.Context, email, password string) (*session.LoginResult, error) {
	var env loginEnvelope
	_, err := c.api.Post(ctx, upstream.Path("auth", "login"), upstream.Options{
		Op:   "login",
		Body: LoginRequest{Email: email, Password: password},
		Out:  &env,
	})
	if err != nil {
		return nil, err
	}
	return env.result(), nil
}

// Verify2FA confirms the second factor for a pending login.
func (c *Client) Verify2FA(ctx context.Context, userID, code string) (*session.LoginResult, error) {
	var env loginEnvelope
	_, err := c.api.Post(ctx, upstream.Path("auth", "2fa", "verify"), upstream.Options{
		Op:   "verify two-factor code",
		Body: map[string]string{"user_id": userID, "code": code},
		Out:  &env,
	})
	if err != nil {
		return nil, err
	}
	return env.result(), nil
}

// Logout revokes the backend access token.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	_, err := c.api.Post(upstream.WithToken(ctx, accessToken), upstream.Path("auth", "logout"), upstream.Options{
		Op: "logout",
	})
	return err
}

// Register submits a registration for the given role. The created user is
// pending approval; registration never yields a session.
func (c *Client) Register(ctx context.Context, role string, req RegistrationRequest) ([]byte, error) {
	return c.api.Post(ctx, upstream.Path("users", "register", role), upstream.Options{
		Op:   "register " + role,
		Body: req,
	})
}

func (c *Client) Profile(ctx context.Context) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("users", "profile"), upstream.Options{
		Op: "fetch profile",
	})
}

func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) ([]byte, error) {
	return c.api.Put(ctx, upstream.Path("users", "profile"), upstream.Options{
		Op:   "update profile",
		Body: update,
	})
}

func (c *Client) UpdateConsent(ctx context.Context, flags ConsentFlags) ([]byte, error) {
	return c.api.Put(ctx, upstream.Path("users", "consent"), upstream.Options{
		Op:   "update consent",
		Body: flags,
	})
}

// ConsentSummary aggregates consent standing across patients for the
// compliance dashboard.
func (c *Client) ConsentSummary(ctx context.Context) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("users", "consent", "summary"), upstream.Options{
		Op: "fetch consent summary",
	})
}

// Approve marks a pending registration as approved. Admin only.
func (c *Client) Approve(ctx context.Context, userID string) ([]byte, error) {
	return c.api.Post(ctx, upstream.Path("users", userID, "approve"), upstream.Options{
		Op: "approve user",
	})
}

// PendingUsers lists registrations awaiting approval. Admin only.
func (c *Client) PendingUsers(ctx context.Context, params url.Values) ([]byte, error) {
	return c.api.Get(ctx, upstream.Path("users", "pending"), upstream.Options{
		Op:     "list pending users",
		Params: params,
	})
}

// Enable2FA starts two-factor enrollment for the current user.
func (c *Client) Enable2FA(ctx context.Context) ([]byte, error) {
	return c.api.Post(ctx, upstream.Path("security", "2fa", "enable"), upstream.Options{
		Op: "enable two-factor",
	})
}

// Confirm2FA completes two-factor enrollment with a code from the user's
// authenticator.
func (c *Client) Confirm2FA(ctx context.Context, code string) ([]byte, error) {
	return c.api.Post(ctx, upstream.Path("security", "2fa", "confirm"), upstream.Options{
		Op:   "confirm two-factor enrollment",
		Body: map[string]string{"code": code},
	})
}

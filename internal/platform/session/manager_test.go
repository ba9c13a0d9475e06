package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeAuth scripts the backend's answers for credential and 2FA checks.
type fakeAuth struct {
	loginResult  *LoginResult
	loginErr     error
	verifyResult *LoginResult
	verifyErr    error

	loginCalls  int
	verifyCalls int
	logoutCalls int
	lastUserID  string
	lastCode    string
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*LoginResult, error) {
	f.loginCalls++
	return f.loginResult, f.loginErr
}

func (f *fakeAuth) Verify2FA(_ context.Context, userID, code string) (*LoginResult, error) {
	f.verifyCalls++
	f.lastUserID = userID
	f.lastCode = code
	return f.verifyResult, f.verifyErr
}

func (f *fakeAuth) Logout(_ context.Context, accessToken string) error {
	f.logoutCalls++
	return nil
}

func newTestManager(auth *fakeAuth, idle, maxAge time.Duration) *Manager {
	return NewManager(NewMemoryStore(), auth, idle, maxAge, zerolog.Nop())
}

func TestLoginDirectAuthentication(t *testing.T) {
	auth := &fakeAuth{loginResult: &LoginResult{
		UserID: "u1", Role: "patient", AccessToken: "at", RefreshToken: "rt",
	}}
	m := newTestManager(auth, time.Minute, time.Hour)

	s, err := m.Login(context.Background(), "p@example.com", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if s.State != StateAuthenticated || !s.Authenticated() {
		t.Errorf("state = %q", s.State)
	}
	if s.UserID != "u1" || s.Role != "patient" {
		t.Errorf("identity = %q/%q", s.UserID, s.Role)
	}
	if s.UpstreamAccessToken != "at" {
		t.Errorf("access token = %q", s.UpstreamAccessToken)
	}
}

func TestLoginRequires2FAYieldsPendingSession(t *testing.T) {
	auth := &fakeAuth{loginResult: &LoginResult{Requires2FA: true, UserID: "u1"}}
	m := newTestManager(auth, time.Minute, time.Hour)

	s, err := m.Login(context.Background(), "p@example.com", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if s.State != StatePending2FA {
		t.Fatalf("state = %q, want pending-2fa", s.State)
	}
	if s.Authenticated() {
		t.Error("pending-2fa session must not be authenticated")
	}
	if s.UserID != "" || s.Role != "" {
		t.Errorf("pending session leaked identity: %q/%q", s.UserID, s.Role)
	}
	if s.PendingUserID != "u1" {
		t.Errorf("pending user = %q", s.PendingUserID)
	}
	if s.UpstreamAccessToken != "" {
		t.Error("pending session must not hold upstream tokens")
	}
}

func TestVerify2FACompletesAuthentication(t *testing.T) {
	auth := &fakeAuth{
		loginResult:  &LoginResult{Requires2FA: true, UserID: "u1"},
		verifyResult: &LoginResult{UserID: "u1", Role: "provider", AccessToken: "at2"},
	}
	m := newTestManager(auth, time.Minute, time.Hour)

	s, _ := m.Login(context.Background(), "d@example.com", "secret")
	s2, err := m.Verify2FA(context.Background(), s.Token, "123456")
	if err != nil {
		t.Fatal(err)
	}
	if !s2.Authenticated() || s2.Role != "provider" {
		t.Errorf("after verify: state=%q role=%q", s2.State, s2.Role)
	}
	if s2.PendingUserID != "" {
		t.Error("pending user id should be cleared")
	}
	if auth.lastUserID != "u1" || auth.lastCode != "123456" {
		t.Errorf("verify called with %q/%q", auth.lastUserID, auth.lastCode)
	}
}

func TestVerify2FAFailureKeepsSessionPending(t *testing.T) {
	auth := &fakeAuth{
		loginResult: &LoginResult{Requires2FA: true, UserID: "u1"},
		verifyErr:   errors.New("bad code"),
	}
	m := newTestManager(auth, time.Minute, time.Hour)

	s, _ := m.Login(context.Background(), "d@example.com", "secret")
	if _, err := m.Verify2FA(context.Background(), s.Token, "000000"); err == nil {
		t.Fatal("expected verify error")
	}

	got, err := m.Resolve(context.Background(), s.Token)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != StatePending2FA || got.Authenticated() {
		t.Errorf("session state after failed verify = %q", got.State)
	}
}

func TestVerify2FAOnAuthenticatedSession(t *testing.T) {
	auth := &fakeAuth{loginResult: &LoginResult{UserID: "u1", Role: "patient"}}
	m := newTestManager(auth, time.Minute, time.Hour)

	s, _ := m.Login(context.Background(), "p@example.com", "secret")
	if _, err := m.Verify2FA(context.Background(), s.Token, "123456"); !errors.Is(err, ErrNotPending) {
		t.Fatalf("err = %v, want ErrNotPending", err)
	}
}

func TestResolveIdleTimeoutForcesLogout(t *testing.T) {
	auth := &fakeAuth{loginResult: &LoginResult{UserID: "u1", Role: "patient"}}
	m := newTestManager(auth, 30*time.Millisecond, time.Hour)

	s, _ := m.Login(context.Background(), "p@example.com", "secret")
	time.Sleep(50 * time.Millisecond)

	if _, err := m.Resolve(context.Background(), s.Token); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
	// The session is gone, not merely flagged.
	if _, err := m.Resolve(context.Background(), s.Token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second resolve err = %v, want ErrNotFound", err)
	}
}

func TestResolveTouchKeepsSessionAlive(t *testing.T) {
	auth := &fakeAuth{loginResult: &LoginResult{UserID: "u1", Role: "patient"}}
	m := newTestManager(auth, 60*time.Millisecond, time.Hour)

	s, _ := m.Login(context.Background(), "p@example.com", "secret")
	for i := 0; i < 3; i++ {
		time.Sleep(30 * time.Millisecond)
		if _, err := m.Resolve(context.Background(), s.Token); err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
	}
}

func TestLogoutDeletesSessionAndRevokesUpstream(t *testing.T) {
	auth := &fakeAuth{loginResult: &LoginResult{UserID: "u1", Role: "patient", AccessToken: "at"}}
	m := newTestManager(auth, time.Minute, time.Hour)

	s, _ := m.Login(context.Background(), "p@example.com", "secret")
	if err := m.Logout(context.Background(), s.Token); err != nil {
		t.Fatal(err)
	}
	if auth.logoutCalls != 1 {
		t.Errorf("upstream logout calls = %d", auth.logoutCalls)
	}
	if _, err := m.Resolve(context.Background(), s.Token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	// Logout is idempotent.
	if err := m.Logout(context.Background(), s.Token); err != nil {
		t.Fatal(err)
	}
}

func TestTokenCodecRoundTrip(t *testing.T) {
	tc := NewTokenCodec([]byte(strings.Repeat("k", 32)), "portal")
	s := &Session{Token: "opaque-token", UserID: "u1", Role: "patient",
		ExpiresAt: time.Now().Add(time.Hour)}

	signed, err := tc.Issue(s)
	if err != nil {
		t.Fatal(err)
	}
	got, err := tc.Verify(signed)
	if err != nil {
		t.Fatal(err)
	}
	if got != "opaque-token" {
		t.Errorf("session token = %q", got)
	}
}

func TestTokenCodecRejectsTampering(t *testing.T) {
	tc := NewTokenCodec([]byte(strings.Repeat("k", 32)), "portal")
	other := NewTokenCodec([]byte(strings.Repeat("x", 32)), "portal")
	s := &Session{Token: "opaque-token", ExpiresAt: time.Now().Add(time.Hour)}

	signed, _ := other.Issue(s)
	if _, err := tc.Verify(signed); err == nil {
		t.Error("expected signature error for token signed with another key")
	}

	expired := &Session{Token: "opaque-token", ExpiresAt: time.Now().Add(-time.Hour)}
	signedExpired, _ := tc.Issue(expired)
	if _, err := tc.Verify(signedExpired); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestRoleCookie(t *testing.T) {
	ck := RoleCookie("provider", 86400)
	if ck.Name != "user_role" || ck.Value != "provider" {
		t.Errorf("cookie = %s=%s", ck.Name, ck.Value)
	}
	if ck.Path != "/" || ck.MaxAge != 86400 || !ck.Secure {
		t.Errorf("cookie attrs = %+v", ck)
	}
	if ck.SameSite != http.SameSiteStrictMode {
		t.Errorf("samesite = %v", ck.SameSite)
	}

	clear := ClearRoleCookie()
	if clear.MaxAge != -1 {
		t.Errorf("clear cookie max-age = %d", clear.MaxAge)
	}
}

func TestSweepDeletesIdleExpiredSessions(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	idle := &Session{
		Token:      "idle",
		State:      StateAuthenticated,
		LastSeenAt: now.Add(-time.Hour),
		ExpiresAt:  now.Add(time.Hour),
	}
	fresh := &Session{
		Token:      "fresh",
		State:      StateAuthenticated,
		LastSeenAt: now,
		ExpiresAt:  now.Add(time.Hour),
	}
	for _, s := range []*Session{idle, fresh} {
		if err := store.Create(context.Background(), s); err != nil {
			t.Fatal(err)
		}
	}

	n, err := store.DeleteExpired(context.Background(), now, 15*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("deleted %d sessions, want 1", n)
	}
	if _, err := store.GetByToken(context.Background(), "idle"); !errors.Is(err, ErrNotFound) {
		t.Errorf("idle-expired session survived the sweep: %v", err)
	}
	if _, err := store.GetByToken(context.Background(), "fresh"); err != nil {
		t.Errorf("fresh session deleted by the sweep: %v", err)
	}
}

func TestSweepDeletesAbsolutelyExpiredSessions(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	s := &Session{
		Token:      "old",
		State:      StateAuthenticated,
		LastSeenAt: now,
		ExpiresAt:  now.Add(-time.Minute),
	}
	if err := store.Create(context.Background(), s); err != nil {
		t.Fatal(err)
	}

	n, err := store.DeleteExpired(context.Background(), now, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("deleted %d sessions, want 1", n)
	}
	if _, err := store.GetByToken(context.Background(), "old"); !errors.Is(err, ErrNotFound) {
		t.Error("absolutely expired session survived the sweep")
	}
}

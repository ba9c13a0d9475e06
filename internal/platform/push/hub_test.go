package push

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestClient(userID string) *client {
	return &client{userID: userID, send: make(chan []byte, 8)}
}

func receive(t *testing.T, c *client) Event {
	t.Helper()
	select {
	case data := <-c.send:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatal(err)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestNotifyReachesOnlyAddressedUser(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	alice := newTestClient("alice")
	bob := newTestClient("bob")
	hub.register(alice)
	hub.register(bob)

	hub.Notify(Event{Type: EventNotification, UserID: "alice", Data: json.RawMessage(`{"id":"n1"}`)})

	ev := receive(t, alice)
	if ev.Type != EventNotification {
		t.Errorf("type = %q", ev.Type)
	}
	select {
	case <-bob.send:
		t.Error("bob received alice's event")
	default:
	}
}

func TestNotifyFansOutToAllTabs(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	tab1 := newTestClient("alice")
	tab2 := newTestClient("alice")
	hub.register(tab1)
	hub.register(tab2)

	hub.Notify(Event{Type: EventMessage, UserID: "alice"})
	receive(t, tab1)
	receive(t, tab2)
}

func TestNotifyDisconnectedUserIsNoop(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	hub.Notify(Event{Type: EventNotification, UserID: "ghost"})
	if n := hub.ConnectionCount("ghost"); n != 0 {
		t.Errorf("connection count = %d", n)
	}
}

func TestUnregisterClosesSendAndDropsUser(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	c := newTestClient("alice")
	hub.register(c)
	if n := hub.ConnectionCount("alice"); n != 1 {
		t.Fatalf("connection count = %d", n)
	}

	hub.unregister(c)
	if n := hub.ConnectionCount("alice"); n != 0 {
		t.Errorf("connection count after unregister = %d", n)
	}
	if _, open := <-c.send; open {
		t.Error("send channel still open")
	}

	// A second unregister of the same client must not panic.
	hub.unregister(c)
}

func TestSlowConsumerDoesNotBlockNotify(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	c := &client{userID: "alice", send: make(chan []byte)} // unbuffered, never read
	hub.register(c)

	done := make(chan struct{})
	go func() {
		hub.Notify(Event{Type: EventNotification, UserID: "alice"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a slow consumer")
	}
}

func TestTimestampDefaulted(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	c := newTestClient("alice")
	hub.register(c)

	hub.Notify(Event{Type: EventNotification, UserID: "alice"})
	ev := receive(t, c)
	if ev.Timestamp.IsZero() {
		t.Error("timestamp not defaulted")
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://portal.example.com"})

	req := func(origin, host string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws/notifications", nil)
		r.Host = host
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	if !check(req("", "gateway.example.com")) {
		t.Error("request without an Origin header rejected")
	}
	if !check(req("https://gateway.example.com", "gateway.example.com")) {
		t.Error("same-host origin rejected")
	}
	if !check(req("https://portal.example.com", "gateway.example.com")) {
		t.Error("allowlisted origin rejected")
	}
	if check(req("https://evil.example.com", "gateway.example.com")) {
		t.Error("cross-site origin admitted")
	}
	if check(req("://bad", "gateway.example.com")) {
		t.Error("malformed origin admitted")
	}
}

package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelink/portal/internal/platform/push"
	"github.com/carelink/portal/internal/platform/upstream"
)

func newTestService(t *testing.T, handler http.Handler) (*Service, *push.Hub) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	api := upstream.NewClient(srv.URL, 5*time.Second, zerolog.Nop())
	hub := push.NewHub(zerolog.Nop())
	return NewService(NewClient(api), hub), hub
}

func TestSendMessagePushesToRecipients(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/communication/conversations/c1/messages" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"m1","conversation_id":"c1","sender_id":"alice","recipient_ids":["bob"],"body":"hi"}`))
	})
	svc, hub := newTestService(t, h)

	sub := hub.Subscribe("bob")
	defer sub.Close()

	raw, err := svc.SendMessage(context.Background(), "c1", SendRequest{Body: "hi"})
	if err != nil {
		t.Fatal(err)
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.ID != "m1" {
		t.Errorf("message id = %q", msg.ID)
	}

	select {
	case ev := <-sub.C:
		if ev.Type != push.EventMessage {
			t.Errorf("event type = %q", ev.Type)
		}
	case <-time.After(time.Second):
		t.Error("recipient did not receive a push event")
	}
}

func TestSendMessageFailureSkipsPush(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"conversation closed"}`, http.StatusConflict)
	})
	svc, hub := newTestService(t, h)

	sub := hub.Subscribe("bob")
	defer sub.Close()

	_, err := svc.SendMessage(context.Background(), "c1", SendRequest{Body: "hi"})
	ue, ok := upstream.AsError(err)
	if !ok || ue.Status != http.StatusConflict {
		t.Fatalf("expected 409 upstream error, got %v", err)
	}
	select {
	case <-sub.C:
		t.Error("push event sent for a failed message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnreadCountsDecoded(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/communication/unread" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"messages":3,"notifications":7}`))
	})
	svc, _ := newTestService(t, h)

	counts, err := svc.UnreadCounts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if counts.Messages != 3 || counts.Notifications != 7 {
		t.Errorf("counts = %+v", counts)
	}
}

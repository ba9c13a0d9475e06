// Package push delivers real-time events to connected browsers over
// WebSockets. Connections are keyed by user id: a browser only ever receives
// events addressed to the session's own user, never a topic it chose itself.
package push

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event kinds pushed to the browser.
const (
	EventNotification = "notification"
	EventMessage      = "message"
)

// Event is one real-time item addressed to a single user.
type Event struct {
	Type      string          `json:"type"`
	UserID    string          `json:"-"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// client is one live browser connection. A user with several tabs open has
// several clients.
type client struct {
	userID string
	send   chan []byte
}

// Hub tracks live connections per user and fans events out to them.
type Hub struct {
	mu     sync.RWMutex
	users  map[string]map[*client]struct{}
	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		users:  make(map[string]map[*client]struct{}),
		logger: logger.With().Str("component", "push").Logger(),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[c.userID] == nil {
		h.users[c.userID] = make(map[*client]struct{})
	}
	h.users[c.userID][c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.users[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.users, c.userID)
	}
	close(c.send)
}

// Notify sends an event to every live connection of its addressed user. A
// disconnected user is not an error; the notification still exists upstream
// and is fetched on the next poll.
func (h *Hub) Notify(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("marshal push event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.users[event.UserID] {
		select {
		case c.send <- data:
		default:
			// Slow consumer; drop rather than block the sender.
		}
	}
}

// Subscription is an in-process subscriber to one user's event stream, for
// consumers that are not WebSocket connections (tests, server-sent events).
type Subscription struct {
	C      <-chan Event
	cancel func()
}

// Close detaches the subscription from the hub.
func (s *Subscription) Close() { s.cancel() }

// Subscribe attaches an in-process consumer to a user's event stream.
func (h *Hub) Subscribe(userID string) *Subscription {
	cl := &client{userID: userID, send: make(chan []byte, 16)}
	h.register(cl)

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		for data := range cl.send {
			var ev Event
			if err := json.Unmarshal(data, &ev); err != nil {
				continue
			}
			out <- ev
		}
	}()
	return &Subscription{C: out, cancel: func() { h.unregister(cl) }}
}

// ConnectionCount returns the number of live connections for a user.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

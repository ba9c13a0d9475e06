package push

import (
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/carelink/portal/internal/platform/auth"
)

// Handler upgrades authenticated browsers to a WebSocket and binds the
// connection to the session's user id.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler creates a Handler. allowedOrigins is the browser origin
// allowlist; CORS does not gate WebSocket upgrades, so the Origin header is
// checked here explicitly.
func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker admits requests without an Origin header (non-browser
// clients, which still need a valid bearer token), same-host requests, and
// origins on the allowlist.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if u.Host == r.Host {
			return true
		}
		for _, a := range allowed {
			if a == origin || a == "*" {
				return true
			}
		}
		return false
	}
}

// RegisterRoutes mounts the push endpoint. The group must already run the
// session middleware; an unauthenticated request never reaches the upgrade.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws/notifications", h.Connect)
}

func (h *Handler) Connect(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{
		userID: userID,
		send:   make(chan []byte, 64),
	}
	h.hub.register(cl)

	go h.writePump(cl, ws)
	go h.readPump(cl, ws)
	return nil
}

// readPump discards inbound frames; the browser has nothing to say on this
// channel. Its job is to notice the close and unregister.
func (h *Handler) readPump(cl *client, ws *websocket.Conn) {
	defer func() {
		h.hub.unregister(cl)
		ws.Close()
	}()
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) writePump(cl *client, ws *websocket.Conn) {
	defer ws.Close()
	for msg := range cl.send {
		if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

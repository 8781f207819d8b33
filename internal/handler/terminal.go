package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/dkhalitov/pos-terminal-sync/internal/hub"
	"github.com/dkhalitov/pos-terminal-sync/internal/model"
	"github.com/dkhalitov/pos-terminal-sync/internal/registry"
)

// Message types a terminal may send over its websocket.
const (
	msgPing         = "PING"
	msgTerminalInfo = "TERMINAL_INFO"
)

// inbound is the envelope of every terminal-to-server message.
type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsConn wraps a gorilla connection with a write lock, because the hub
// and the read loop's PONG replies may write concurrently and gorilla
// connections allow only one writer at a time.
type wsConn struct {
	*websocket.Conn
	writeMu chan struct{}
}

func newWSConn(c *websocket.Conn) *wsConn {
	w := &wsConn{Conn: c, writeMu: make(chan struct{}, 1)}
	w.writeMu <- struct{}{}
	return w
}

func (w *wsConn) WriteJSON(v interface{}) error {
	<-w.writeMu
	defer func() { w.writeMu <- struct{}{} }()
	return w.Conn.WriteJSON(v)
}

// TerminalHandler upgrades terminal connections, keeps the registry
// current, and answers the terminal's own messages.  Everything else a
// terminal sees arrives through hub broadcasts.
type TerminalHandler struct {
	Registry    *registry.Registry
	Hub         *hub.Hub
	ReadTimeout time.Duration

	upgrader websocket.Upgrader
}

// NewTerminalHandler builds the websocket handler.  readTimeout bounds
// terminal silence: a terminal that sends nothing (not even PING) for
// the whole window is considered dead and unregistered.
func NewTerminalHandler(reg *registry.Registry, h *hub.Hub, readTimeout time.Duration) *TerminalHandler {
	return &TerminalHandler{
		Registry:    reg,
		Hub:         h,
		ReadTimeout: readTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Terminals live on the venue LAN behind the venue origin;
			// origin checks are the auth collaborator's concern.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve handles GET /ws/terminal.  The terminal identifies itself with
// the X-Terminal-ID header; a missing or malformed id is replaced with
// a generated one rather than rejected, and the terminal learns its
// effective id from the registration reply.
func (t *TerminalHandler) Serve(c echo.Context) error {
	ws, err := t.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	conn := newWSConn(ws)
	h := t.Registry.Register(conn, c.Request().Header.Get("X-Terminal-ID"))

	// Tell the terminal which id it ended up with (it may have been
	// substituted), then announce the connection to everyone.
	_ = conn.WriteJSON(echo.Map{"type": "REGISTERED", "terminal_id": h.ID()})
	t.Hub.Publish(model.EventTerminalConnected, echo.Map{"terminal_id": h.ID()})

	t.readLoop(conn, h)

	t.Registry.Unregister(h)
	_ = conn.Close()
	t.Hub.Publish(model.EventTerminalDisconnected, echo.Map{"terminal_id": h.ID()})
	return nil
}

// readLoop processes inbound messages until the connection dies or the
// terminal goes silent past the read deadline.  Unknown message types
// are logged and ignored; no error goes back to the terminal.
func (t *TerminalHandler) readLoop(conn *wsConn, h *registry.Handle) {
	for {
		if t.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(t.ReadTimeout))
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("terminal %s: read error: %v", h.ID(), err)
			}
			return
		}
		t.Registry.Touch(h)

		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("terminal %s: malformed message ignored: %v", h.ID(), err)
			continue
		}

		switch msg.Type {
		case msgPing:
			_ = conn.WriteJSON(echo.Map{"type": "PONG", "timestamp": time.Now().UTC()})
		case msgTerminalInfo:
			var info model.TerminalInfo
			if err := json.Unmarshal(msg.Data, &info); err != nil {
				log.Printf("terminal %s: bad TERMINAL_INFO payload ignored: %v", h.ID(), err)
				continue
			}
			t.Registry.UpdateInfo(h, info)
		default:
			log.Printf("terminal %s: unknown message type %q ignored", h.ID(), msg.Type)
		}
	}
}

// ListTerminals handles GET /v1/terminals, the operator-facing snapshot
// of who is online right now.
func (t *TerminalHandler) ListTerminals(c echo.Context) error {
	snap := t.Registry.Snapshot()
	return c.JSON(http.StatusOK, echo.Map{"count": len(snap), "terminals": snap})
}

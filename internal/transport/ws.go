package transport

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"sushigo/internal/session"
)

// WSHandler upgrades HTTP requests to WebSocket sessions carrying the same
// line protocol: each text message is one protocol line in either
// direction.
type WSHandler struct {
	logger   *slog.Logger
	engine   *session.Engine
	upgrader websocket.Upgrader
}

// NewWSHandler builds the WebSocket endpoint handler.
func NewWSHandler(engine *session.Engine, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		logger: logger,
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The protocol has no browser origin story; bots connect
			// from anywhere.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := h.engine.Connect(&wsConn{conn: conn})
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if kind != websocket.TextMessage {
			continue
		}
		h.engine.HandleLine(client, string(data))
	}
	h.engine.HandleClose(client)
}

// wsConn adapts a websocket connection to the session.Conn line interface.
// The trailing newline of an encoded line is dropped; message framing
// replaces it.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) WriteLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, []byte(strings.TrimSuffix(line, "\n")))
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

func (w *wsConn) RemoteAddr() string {
	return w.conn.RemoteAddr().String()
}

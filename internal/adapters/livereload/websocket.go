package livereload

import (
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
)

// ProtocolV7 is the LiveReload protocol spoken on the WebSocket endpoint.
const ProtocolV7 = "http://livereload.com/protocols/official-7"

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type command struct {
	Command    string   `json:"command"`
	Protocols  []string `json:"protocols,omitempty"`
	ServerName string   `json:"serverName,omitempty"`
	Path       string   `json:"path,omitempty"`
	LiveCSS    bool     `json:"liveCSS,omitempty"`
}

// WebSocketHandler speaks the LiveReload protocol used by browser extensions.
func (h *Hub) WebSocketHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Debug("livereload upgrade failed: " + err.Error())
			return
		}
		defer conn.Close() //nolint:errcheck // closing a finished connection

		var hello command
		if err := conn.ReadJSON(&hello); err != nil || hello.Command != "hello" || !slices.Contains(hello.Protocols, ProtocolV7) {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected hello with protocol 7"),
				time.Now().Add(writeTimeout))
			return
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(command{Command: "hello", Protocols: []string{ProtocolV7}, ServerName: "press"}); err != nil {
			return
		}

		c := h.register()
		defer h.unregister(c)

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				// info and other client commands carry nothing we act on.
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-closed:
				return
			case <-r.Context().Done():
				return
			case _, ok := <-c.send:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(command{Command: "reload", Path: "/", LiveCSS: true}); err != nil {
					return
				}
			}
		}
	})
}

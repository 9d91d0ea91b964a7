// handlers/events.go
package handlers

import (
	"time"

	"github.com/gofiber/websocket/v2"

	"disciplinebaby/events"
)

const (
	eventBufferSize = 16
	writeWait       = 10 * time.Second
)

// StreamEvents forwards bus events to one websocket client until either side
// goes away. Messages from the client are read only to notice the close.
func (h *API) StreamEvents(conn *websocket.Conn) {
	stream, unsubscribe := h.app.Bus.Subscribe(eventBufferSize)
	defer unsubscribe()

	log := h.log.With("remote", conn.RemoteAddr().String())
	log.Info("🔌 event stream connected")
	defer log.Info("🔌 event stream disconnected")

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	hello := events.Event{Name: "connected", UserID: h.app.Config.UserID, At: time.Now().UTC()}
	if err := h.send(conn, hello); err != nil {
		return
	}

	for {
		select {
		case e, ok := <-stream:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if e.UserID != h.app.Config.UserID {
				continue
			}
			if err := h.send(conn, e); err != nil {
				log.Debug("event write failed", "error", err)
				return
			}
		case <-closed:
			return
		}
	}
}

func (h *API) send(conn *websocket.Conn, e events.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(e)
}

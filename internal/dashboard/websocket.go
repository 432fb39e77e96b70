package dashboard

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dj-oyu/vision-dash/internal/logger"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow any origin, as /api/live/stream does.
	},
}

// handleLiveSocket pushes the same live events as /api/live/stream as JSON
// text messages. Idle connections get pings at the keepalive interval.
func (s *Server) handleLiveSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("LiveStream", "WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	id, eventCh := s.live.Subscribe()
	defer s.live.Unsubscribe(id)

	// Reads only detect the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	first, err := SerializeLiveEvent(s.dashboard.liveEvent())
	if err != nil {
		logger.Error("LiveStream", "Serialize error: %v", err)
		return
	}
	if err := writeSocketEvent(conn, first); err != nil {
		logger.Debug("LiveStream", "WebSocket client #%d gone during first write: %v", id, err)
		return
	}

	ticker := time.NewTicker(s.cfg.KeepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return

		case event, ok := <-eventCh:
			if !ok {
				return
			}
			if err := writeSocketEvent(conn, event); err != nil {
				logger.Debug("LiveStream", "WebSocket client #%d write error: %v", id, err)
				return
			}
			ticker.Reset(s.cfg.KeepaliveInterval)

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				logger.Debug("LiveStream", "WebSocket client #%d ping error: %v", id, err)
				return
			}
		}
	}
}

func writeSocketEvent(conn *websocket.Conn, event *SerializedEvent) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, event.JSONData)
}

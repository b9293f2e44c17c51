package webmonitor

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/logger"
)

// upgrader allows any origin; the monitor is served to a LAN dashboard.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const socketWriteWait = 5 * time.Second

// handleStatusSocket pushes the image-less latest message over a WebSocket
// whenever a new message arrives.
func (s *Server) handleStatusSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("WebSocket", "Upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// the reader only watches for the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Debug("WebSocket", "Client disconnected: %v", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(s.cfg.StatusInterval)
	defer ticker.Stop()

	lastVersion := -1
	for {
		version, _ := s.store.Info()
		if version != lastVersion {
			var payload any = map[string]any{}
			if msg, ok := s.store.Slim(); ok {
				payload = msg
			}
			data, err := detectJSON.Marshal(payload)
			if err != nil {
				logger.Error("WebSocket", "Encode status: %v", err)
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Debug("WebSocket", "Write failed: %v", err)
				return
			}
			lastVersion = version
		}

		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case <-ticker.C:
		}
	}
}

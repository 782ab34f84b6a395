package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	v1mware "github.com/translatex/relay/internal/api/v1/middleware"
	"github.com/translatex/relay/internal/connections"
	"github.com/translatex/relay/internal/services/chat"
	"github.com/translatex/relay/pkg/httpext"
)

// The default CheckOrigin rejects cross-origin upgrades
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// HandleChatWebSocket pushes the session's conversation view on connect and after
// every change. Inbound frames other than control frames are ignored.
func HandleChatWebSocket(manager *connections.Manager, w http.ResponseWriter, r *http.Request) {
	conv, ok := v1mware.ConversationFromContext(r.Context())
	if !ok {
		httpext.JsonError(w, "No active session", http.StatusUnauthorized)
		return
	}
	sessionID := v1mware.SessionIDFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("Could not upgrade connection")
		return
	}

	client := manager.AddConnection(sessionID, conn)
	defer func() {
		manager.RemoveConnection(client)
		conn.Close()
	}()

	log.Debug().Str("session_id", sessionID).Int("connections", manager.GetConnectionCount()).Msg("Websocket connected")

	timeouts := manager.GetTimeouts()

	// Set up ping/pong handlers
	conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
	})

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(timeouts.PingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				deadline := time.Now().Add(timeouts.WriteWait)
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, deadline); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	snap := conv.Snapshot()
	if _, err := manager.Send(client, snap.Version, chat.NewView(snap)); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to send initial snapshot")
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("session_id", sessionID).Msg("Unexpected websocket closure")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
	}
}

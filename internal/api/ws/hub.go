// Package ws streams per-browser toast notifications over WebSocket.
package ws

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/notify"
	"github.com/gosuda/taskboard/internal/session"
	redisstore "github.com/gosuda/taskboard/internal/store/redis"
)

// Hub manages WebSocket connections backed by a notify.Bus.
type Hub struct {
	bus     notify.Bus
	origins []string
}

// NewHub creates a new WebSocket hub. origins are the host patterns accepted
// in addition to the request's own host.
func NewHub(bus notify.Bus, origins []string) *Hub {
	return &Hub{bus: bus, origins: origins}
}

// ServeToasts handles WebSocket connections for one browser session.
// Subscribes to channel "toasts:<sid>" and forwards every published toast
// as a JSON text message.
func (h *Hub) ServeToasts(w http.ResponseWriter, r *http.Request) {
	sid, ok := session.IDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing session", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// The client never sends; CloseRead handles control frames and cancels
	// ctx once the peer goes away.
	ctx := conn.CloseRead(r.Context())
	channel := redisstore.ToastChannel(sid)

	messages, cleanup, err := h.bus.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}

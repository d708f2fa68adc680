package handlers

import (
	"net/http"

	"github.com/google/uuid"

	ws "github.com/agentstation/venuemap/internal/server/websocket"
)

// HandleWebSocket handles GET /api/v1/updates/ws. Clients receive venue,
// view, loading and rate events; inbound messages are ignored.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(uuid.NewString(), h.wsHub, conn)
	h.wsHub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

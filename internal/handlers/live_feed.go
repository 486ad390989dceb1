package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/crisiscare/crisiscare-backend/internal/logger"
	"github.com/crisiscare/crisiscare-backend/internal/services"
)

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is enforced at the HTTP layer.
		return true
	},
}

// LiveFeedHandler streams newly stored entries over a websocket.
type LiveFeedHandler struct {
	Hub *services.Hub
}

// Subscribe handles GET /ws/community-help. The connection is send-only;
// anything the client sends is discarded, and a read error ends the
// subscription.
func (h *LiveFeedHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := h.Hub.Register(conn)
	defer h.Hub.Unregister(client)
	logger.GetLogger().Infow("Live feed client connected", "client", client.ID)

	conn.SetReadLimit(512)
	go func() {
		defer h.Hub.Unregister(client)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	client.WritePump()
	logger.GetLogger().Infow("Live feed client disconnected", "client", client.ID)
}

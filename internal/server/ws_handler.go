package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jeecoo/vibro-backend/internal/realtime"
	"go.uber.org/zap"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Mobile clients connect from app contexts without an Origin header.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWebSocket upgrades the connection and hands it to the realtime hub.
// The userId query parameter identifies the caller; groups is an optional
// comma-separated list of group ids to subscribe immediately.
func (h *httpHandler) handleWebSocket(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId query parameter required"})
		return
	}

	var groupIDs []string
	if raw := c.Query("groups"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				groupIDs = append(groupIDs, trimmed)
			}
		}
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	session := realtime.NewSession(h.hub, conn, userID, h.logger)
	session.Run(groupIDs)
}

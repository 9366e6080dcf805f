package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jeecoo/vibro-backend/internal/messages"
	"github.com/jeecoo/vibro-backend/internal/realtime"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

type sendMessageRequestPayload struct {
	GroupID     string `json:"groupId"`
	MessageType string `json:"messageType"`
	Message     string `json:"message"`
	ImageURL    string `json:"imageUrl"`
}

func (h *httpHandler) handleSendMessage(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var request sendMessageRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	groupID, err := bson.ObjectIDFromHex(request.GroupID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if _, err := h.groups.Get(c.Request.Context(), groupID); err != nil {
		h.respondGroupError(c, err, "group lookup failed")
		return
	}

	view, err := h.messages.Send(c.Request.Context(), userID, groupID, request.MessageType, request.Message, request.ImageURL)
	if err != nil {
		h.respondMessageError(c, err, "message send failed")
		return
	}

	// Live delivery happens after the record is durable; a fan-out hiccup
	// never fails the HTTP response.
	h.hub.Fanout().Emit(groupID.Hex(), realtime.EventNewMessage, view)

	c.JSON(http.StatusCreated, view)
}

func (h *httpHandler) handleListMessages(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	groupID, ok := h.pathObjectID(c, "groupId")
	if !ok {
		return
	}

	if _, err := h.groups.Get(c.Request.Context(), groupID); err != nil {
		h.respondGroupError(c, err, "group lookup failed")
		return
	}

	views, err := h.messages.List(c.Request.Context(), userID, groupID)
	if err != nil {
		h.respondMessageError(c, err, "message listing failed")
		return
	}

	c.JSON(http.StatusOK, views)
}

func (h *httpHandler) respondMessageError(c *gin.Context, err error, logMessage string) {
	switch {
	case errors.Is(err, messages.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, messages.ErrNotMember):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
	default:
		h.logger.Error(logMessage, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
	}
}

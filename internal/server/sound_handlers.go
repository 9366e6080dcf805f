package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jeecoo/vibro-backend/internal/alerts"
	"github.com/jeecoo/vibro-backend/internal/sounds"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

type addSoundRequestPayload struct {
	Label      string `json:"label"`
	Confidence string `json:"confidence"`
	Sound      string `json:"sound"`
}

func (h *httpHandler) handleAddDetectedSound(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var request addSoundRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	record, err := h.sounds.AddDetected(c.Request.Context(), userID, request.Label, request.Confidence, request.Sound)
	if err != nil {
		h.respondSoundError(c, err, "detected sound save failed")
		return
	}

	// The alert is durable at this point; a notification failure downgrades
	// to partial success rather than failing the request.
	if err := h.alerts.Dispatch(c.Request.Context(), alerts.Alert{
		UserID:     userID.Hex(),
		Label:      record.Label,
		Confidence: record.Confidence,
		SoundID:    record.ID.Hex(),
	}); err != nil {
		h.logger.Warn("alert dispatch failed", zap.String("sound", record.ID.Hex()), zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{"sound": record, "message": "Detected sound saved successfully"})
}

func (h *httpHandler) handleListDetectedSounds(c *gin.Context) {
	if _, ok := h.currentUserID(c); !ok {
		return
	}
	targetID, ok := h.pathObjectID(c, "userId")
	if !ok {
		return
	}

	found, err := h.sounds.DetectedFor(c.Request.Context(), targetID)
	if err != nil {
		h.respondSoundError(c, err, "detected sound listing failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sounds": found})
}

type createFolderRequestPayload struct {
	GroupID    string `json:"groupId"`
	FolderName string `json:"folderName"`
}

func (h *httpHandler) handleCreateFolder(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var request createFolderRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	groupID, err := bson.ObjectIDFromHex(request.GroupID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if !h.requireMembership(c, groupID, userID) {
		return
	}

	folder, err := h.sounds.CreateFolder(c.Request.Context(), groupID, userID, request.FolderName)
	if err != nil {
		h.respondSoundError(c, err, "folder creation failed")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"folder": folder})
}

func (h *httpHandler) handleListFolders(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	groupID, ok := h.pathObjectID(c, "groupId")
	if !ok {
		return
	}
	if !h.requireMembership(c, groupID, userID) {
		return
	}

	folders, err := h.sounds.FoldersFor(c.Request.Context(), groupID)
	if err != nil {
		h.respondSoundError(c, err, "folder listing failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

type addCustomSoundRequestPayload struct {
	GroupID  string `json:"groupId"`
	FolderID string `json:"folderId"`
	Sound    string `json:"sound"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
}

func (h *httpHandler) handleAddCustomSound(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var request addCustomSoundRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	groupID, err := bson.ObjectIDFromHex(request.GroupID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	folderID, err := bson.ObjectIDFromHex(request.FolderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if !h.requireMembership(c, groupID, userID) {
		return
	}

	record, err := h.sounds.AddCustomSound(c.Request.Context(), groupID, userID, folderID, request.Sound, request.Filename, request.MimeType)
	if err != nil {
		h.respondSoundError(c, err, "custom sound save failed")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"sound": record})
}

func (h *httpHandler) handleListCustomSounds(c *gin.Context) {
	if _, ok := h.currentUserID(c); !ok {
		return
	}
	folderID, ok := h.pathObjectID(c, "folderId")
	if !ok {
		return
	}

	found, err := h.sounds.SoundsInFolder(c.Request.Context(), folderID)
	if err != nil {
		h.respondSoundError(c, err, "custom sound listing failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sounds": found})
}

// handleGetCustomSound returns one sample including its wav payload; the
// folder listing strips payloads, so playback goes through here.
func (h *httpHandler) handleGetCustomSound(c *gin.Context) {
	if _, ok := h.currentUserID(c); !ok {
		return
	}
	soundID, ok := h.pathObjectID(c, "soundId")
	if !ok {
		return
	}

	record, err := h.sounds.GetCustomSound(c.Request.Context(), soundID)
	if err != nil {
		h.respondSoundError(c, err, "custom sound fetch failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sound": record})
}

func (h *httpHandler) handleDeleteCustomSound(c *gin.Context) {
	if _, ok := h.currentUserID(c); !ok {
		return
	}
	soundID, ok := h.pathObjectID(c, "soundId")
	if !ok {
		return
	}

	if err := h.sounds.DeleteCustomSound(c.Request.Context(), soundID); err != nil {
		h.respondSoundError(c, err, "custom sound deletion failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sound deleted successfully"})
}

type upsertModelRequestPayload struct {
	GroupID   string `json:"groupId"`
	ModelName string `json:"modelName"`
	ModelPath string `json:"modelPath"`
}

func (h *httpHandler) handleUpsertModel(c *gin.Context) {
	if _, ok := h.currentUserID(c); !ok {
		return
	}

	var request upsertModelRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	groupID, err := bson.ObjectIDFromHex(request.GroupID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	record, err := h.sounds.UpsertModel(c.Request.Context(), groupID, request.ModelName, request.ModelPath)
	if err != nil {
		h.respondSoundError(c, err, "model upsert failed")
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (h *httpHandler) handleGetModelByGroup(c *gin.Context) {
	if _, ok := h.currentUserID(c); !ok {
		return
	}
	groupID, ok := h.pathObjectID(c, "groupId")
	if !ok {
		return
	}

	record, err := h.sounds.ModelForGroup(c.Request.Context(), groupID)
	if err != nil {
		h.respondSoundError(c, err, "model fetch failed")
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *httpHandler) requireMembership(c *gin.Context, groupID, userID bson.ObjectID) bool {
	member, err := h.groups.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		h.logger.Error("membership check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return false
	}
	return true
}

func (h *httpHandler) respondSoundError(c *gin.Context, err error, logMessage string) {
	switch {
	case errors.Is(err, sounds.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, sounds.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		h.logger.Error(logMessage, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
	}
}

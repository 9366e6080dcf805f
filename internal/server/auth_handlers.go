package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jeecoo/vibro-backend/internal/users"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

type registerRequestPayload struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequestPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponsePayload struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

type userPayload struct {
	ID           string `json:"_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	ProfileImage string `json:"profileImage"`
}

func toUserPayload(user users.User) userPayload {
	return userPayload{
		ID:           user.ID.Hex(),
		Username:     user.Username,
		Email:        user.Email,
		ProfileImage: user.ProfileImage,
	}
}

func (h *httpHandler) handleRegister(c *gin.Context) {
	var request registerRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	user, err := h.users.Register(c.Request.Context(), request.Email, request.Username, request.Password)
	if err != nil {
		h.respondUserError(c, err, "registration failed")
		return
	}

	token, _, err := h.tokens.IssueToken(user.ID.Hex())
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusCreated, authResponsePayload{Token: token, User: toUserPayload(user)})
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	user, err := h.users.Login(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		h.respondUserError(c, err, "login failed")
		return
	}

	token, _, err := h.tokens.IssueToken(user.ID.Hex())
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, authResponsePayload{Token: token, User: toUserPayload(user)})
}

type updateProfileRequestPayload struct {
	Username string `json:"username"`
}

func (h *httpHandler) handleUpdateProfile(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var request updateProfileRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	user, err := h.users.UpdateUsername(c.Request.Context(), userID, request.Username)
	if err != nil {
		h.respondUserError(c, err, "profile update failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserPayload(user), "message": "Profile updated successfully"})
}

type deviceTokenRequestPayload struct {
	DeviceToken string `json:"deviceToken"`
}

func (h *httpHandler) handleSetDeviceToken(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var request deviceTokenRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || request.DeviceToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if err := h.users.SetDeviceToken(c.Request.Context(), userID, request.DeviceToken); err != nil {
		h.respondUserError(c, err, "device token update failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device token registered"})
}

// currentUserID pulls the authenticated user id out of the gin context.
func (h *httpHandler) currentUserID(c *gin.Context) (bson.ObjectID, bool) {
	raw := c.GetString(userIDContextKey)
	if raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return bson.ObjectID{}, false
	}
	id, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return bson.ObjectID{}, false
	}
	return id, true
}

func (h *httpHandler) respondUserError(c *gin.Context, err error, logMessage string) {
	switch {
	case errors.Is(err, users.ErrInvalidInput),
		errors.Is(err, users.ErrEmailTaken),
		errors.Is(err, users.ErrUsernameTaken),
		errors.Is(err, users.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, users.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	default:
		h.logger.Error(logMessage, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
	}
}

package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jeecoo/vibro-backend/internal/groups"
	"github.com/jeecoo/vibro-backend/internal/users"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

type createGroupRequestPayload struct {
	GroupName  string `json:"groupName"`
	GroupPhoto string `json:"groupPhoto"`
}

func (h *httpHandler) handleCreateGroup(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var request createGroupRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	group, err := h.groups.Create(c.Request.Context(), userID, request.GroupName, request.GroupPhoto)
	if err != nil {
		h.respondGroupError(c, err, "group creation failed")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"group": group, "message": "Group created successfully"})
}

func (h *httpHandler) handleListGroups(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	found, err := h.groups.GroupsFor(c.Request.Context(), userID)
	if err != nil {
		h.respondGroupError(c, err, "group listing failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": found})
}

func (h *httpHandler) handleGetGroup(c *gin.Context) {
	if _, ok := h.currentUserID(c); !ok {
		return
	}
	groupID, ok := h.pathObjectID(c, "groupId")
	if !ok {
		return
	}

	group, err := h.groups.Get(c.Request.Context(), groupID)
	if err != nil {
		h.respondGroupError(c, err, "group fetch failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": group})
}

type updateGroupRequestPayload struct {
	GroupName  *string `json:"groupName"`
	GroupPhoto *string `json:"groupPhoto"`
	IsActive   *bool   `json:"isActive"`
}

func (h *httpHandler) handleUpdateGroup(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	groupID, ok := h.pathObjectID(c, "groupId")
	if !ok {
		return
	}

	var request updateGroupRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	group, err := h.groups.Update(c.Request.Context(), groupID, userID, request.GroupName, request.GroupPhoto, request.IsActive)
	if err != nil {
		h.respondGroupError(c, err, "group update failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": group, "message": "Group updated successfully"})
}

func (h *httpHandler) handleDeleteGroup(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	groupID, ok := h.pathObjectID(c, "groupId")
	if !ok {
		return
	}

	if err := h.groups.Delete(c.Request.Context(), groupID, userID); err != nil {
		h.respondGroupError(c, err, "group deletion failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Group deleted successfully"})
}

type memberPayload struct {
	userPayload
	IsAdmin      bool `json:"isAdmin"`
	MonitoringOn bool `json:"isMonitoringOn"`
}

func (h *httpHandler) handleListMembers(c *gin.Context) {
	if _, ok := h.currentUserID(c); !ok {
		return
	}
	groupID, ok := h.pathObjectID(c, "groupId")
	if !ok {
		return
	}

	memberships, err := h.groups.Memberships(c.Request.Context(), groupID)
	if err != nil {
		h.respondGroupError(c, err, "member listing failed")
		return
	}

	memberIDs := make([]bson.ObjectID, 0, len(memberships))
	for _, membership := range memberships {
		memberIDs = append(memberIDs, membership.UserID)
	}
	accounts, err := h.users.GetMany(c.Request.Context(), memberIDs)
	if err != nil {
		h.logger.Error("member account lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	accountsByID := make(map[bson.ObjectID]users.User, len(accounts))
	for _, account := range accounts {
		accountsByID[account.ID] = account
	}

	members := make([]memberPayload, 0, len(memberships))
	for _, membership := range memberships {
		account, ok := accountsByID[membership.UserID]
		if !ok {
			continue
		}
		members = append(members, memberPayload{
			userPayload:  toUserPayload(account),
			IsAdmin:      membership.IsAdmin,
			MonitoringOn: membership.MonitoringOn,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": members})
}

type addMemberRequestPayload struct {
	UserID string `json:"userId"`
}

func (h *httpHandler) handleAddMember(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	groupID, ok := h.pathObjectID(c, "groupId")
	if !ok {
		return
	}

	var request addMemberRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || request.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	targetID, err := bson.ObjectIDFromHex(request.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if _, err := h.users.Get(c.Request.Context(), targetID); err != nil {
		h.respondUserError(c, err, "member lookup failed")
		return
	}

	if err := h.groups.AddMember(c.Request.Context(), groupID, userID, targetID); err != nil {
		h.respondGroupError(c, err, "member addition failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member added successfully"})
}

func (h *httpHandler) handleRemoveMember(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	groupID, ok := h.pathObjectID(c, "groupId")
	if !ok {
		return
	}
	memberID, ok := h.pathObjectID(c, "memberId")
	if !ok {
		return
	}

	if err := h.groups.RemoveMember(c.Request.Context(), groupID, userID, memberID); err != nil {
		h.respondGroupError(c, err, "member removal failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}

func (h *httpHandler) handleJoinGroup(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	groupID, ok := h.pathObjectID(c, "groupId")
	if !ok {
		return
	}

	if err := h.groups.Join(c.Request.Context(), groupID, userID); err != nil {
		h.respondGroupError(c, err, "group join failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Joined group successfully"})
}

type monitoringRequestPayload struct {
	Enabled *bool `json:"enabled"`
}

func (h *httpHandler) handleSetMonitoring(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	groupID, ok := h.pathObjectID(c, "groupId")
	if !ok {
		return
	}

	var request monitoringRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || request.Enabled == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if err := h.groups.SetMonitoring(c.Request.Context(), groupID, userID, *request.Enabled); err != nil {
		h.respondGroupError(c, err, "monitoring update failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Monitoring preference updated"})
}

// pathObjectID parses an object id path parameter, answering 404 on a
// malformed id the way a missing record would.
func (h *httpHandler) pathObjectID(c *gin.Context, name string) (bson.ObjectID, bool) {
	id, err := bson.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found (invalid ID format)"})
		return bson.ObjectID{}, false
	}
	return id, true
}

func (h *httpHandler) respondGroupError(c *gin.Context, err error, logMessage string) {
	switch {
	case errors.Is(err, groups.ErrInvalidInput), errors.Is(err, groups.ErrAlreadyMember):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, groups.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
	case errors.Is(err, groups.ErrNotMember):
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found in this group"})
	case errors.Is(err, groups.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized"})
	default:
		h.logger.Error(logMessage, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
	}
}

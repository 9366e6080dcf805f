package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jeecoo/vibro-backend/internal/alerts"
	"github.com/jeecoo/vibro-backend/internal/groups"
	"github.com/jeecoo/vibro-backend/internal/messages"
	"github.com/jeecoo/vibro-backend/internal/realtime"
	"github.com/jeecoo/vibro-backend/internal/sounds"
	"github.com/jeecoo/vibro-backend/internal/users"
	"go.uber.org/zap"
)

const userIDContextKey = "vibro_user_id"

var (
	errMissingTokenManager   = errors.New("token manager dependency required")
	errMissingUsersService   = errors.New("users service dependency required")
	errMissingGroupsService  = errors.New("groups service dependency required")
	errMissingMessageService = errors.New("message service dependency required")
	errMissingSoundService   = errors.New("sound service dependency required")
	errMissingDispatcher     = errors.New("alert dispatcher dependency required")
	errMissingHub            = errors.New("realtime hub dependency required")
	errInvalidAuthorization  = errors.New("authorization header missing or invalid")
)

// TokenManager issues and validates the bearer tokens handed out at login.
type TokenManager interface {
	IssueToken(userID string) (string, int64, error)
	ValidateToken(token string) (string, error)
}

// Dependencies collects everything the HTTP layer needs.
type Dependencies struct {
	TokenManager TokenManager
	Users        *users.Service
	Groups       *groups.Service
	Messages     *messages.Service
	Sounds       *sounds.Service
	Alerts       *alerts.Dispatcher
	Hub          *realtime.Hub
	Logger       *zap.Logger
}

// NewHTTPHandler wires the REST routes and the websocket endpoint.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.Users == nil {
		return nil, errMissingUsersService
	}
	if deps.Groups == nil {
		return nil, errMissingGroupsService
	}
	if deps.Messages == nil {
		return nil, errMissingMessageService
	}
	if deps.Sounds == nil {
		return nil, errMissingSoundService
	}
	if deps.Alerts == nil {
		return nil, errMissingDispatcher
	}
	if deps.Hub == nil {
		return nil, errMissingHub
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:       deps.TokenManager,
		users:        deps.Users,
		groups:       deps.Groups,
		messages:     deps.Messages,
		sounds:       deps.Sounds,
		alerts:       deps.Alerts,
		hub:          deps.Hub,
		loginLimiter: newLimiterStore(10, 5, 5*time.Minute),
		logger:       logger,
	}

	authRoutes := router.Group("/api/auth")
	authRoutes.POST("/register", handler.rateLimited, handler.handleRegister)
	authRoutes.POST("/login", handler.rateLimited, handler.handleLogin)

	protected := router.Group("/api")
	protected.Use(handler.authorizeRequest)
	protected.PUT("/auth/update", handler.handleUpdateProfile)
	protected.PUT("/auth/device-token", handler.handleSetDeviceToken)

	protected.POST("/groups", handler.handleCreateGroup)
	protected.GET("/groups", handler.handleListGroups)
	protected.GET("/groups/:groupId", handler.handleGetGroup)
	protected.PUT("/groups/:groupId", handler.handleUpdateGroup)
	protected.DELETE("/groups/:groupId", handler.handleDeleteGroup)
	protected.GET("/groups/:groupId/members", handler.handleListMembers)
	protected.POST("/groups/:groupId/members", handler.handleAddMember)
	protected.DELETE("/groups/:groupId/members/:memberId", handler.handleRemoveMember)
	protected.POST("/groups/:groupId/join", handler.handleJoinGroup)
	protected.PUT("/groups/:groupId/monitoring", handler.handleSetMonitoring)

	protected.POST("/messages", handler.handleSendMessage)
	protected.GET("/messages/:groupId", handler.handleListMessages)

	protected.POST("/sounds", handler.handleAddDetectedSound)
	protected.GET("/sounds/:userId", handler.handleListDetectedSounds)

	protected.POST("/folders", handler.handleCreateFolder)
	protected.GET("/folders/:groupId", handler.handleListFolders)
	protected.POST("/custom-sounds", handler.handleAddCustomSound)
	protected.GET("/custom-sounds/:folderId", handler.handleListCustomSounds)
	protected.DELETE("/custom-sounds/:soundId", handler.handleDeleteCustomSound)
	protected.GET("/sound-files/:soundId", handler.handleGetCustomSound)

	protected.POST("/models", handler.handleUpsertModel)
	protected.GET("/models/bygroup/:groupId", handler.handleGetModelByGroup)

	router.GET("/ws", handler.handleWebSocket)

	return router, nil
}

type httpHandler struct {
	tokens       TokenManager
	users        *users.Service
	groups       *groups.Service
	messages     *messages.Service
	sounds       *sounds.Service
	alerts       *alerts.Dispatcher
	hub          *realtime.Hub
	loginLimiter *limiterStore
	logger       *zap.Logger
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	subject, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userIDContextKey, subject)
	c.Next()
}

func (h *httpHandler) rateLimited(c *gin.Context) {
	if !h.loginLimiter.Allow(c.ClientIP()) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too_many_requests"})
		return
	}
	c.Next()
}

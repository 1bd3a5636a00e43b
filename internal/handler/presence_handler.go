package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-client/internal/model"
	"campus-client/internal/presence"
)

// PresenceHandler exposes the cached presence layer to the UI shell. All
// reads go through the cache; the handler never talks to the remote store
// directly.
type PresenceHandler struct {
	presenceService *presence.Service
	logger          *zap.Logger
}

func NewPresenceHandler(presenceService *presence.Service, logger *zap.Logger) *PresenceHandler {
	return &PresenceHandler{
		presenceService: presenceService,
		logger:          logger,
	}
}

// GetUserPresence returns the full presence record for one user.
func (h *PresenceHandler) GetUserPresence(c *gin.Context) {
	userID := c.Param("userId")

	info, err := h.presenceService.GetUserPresence(c.Request.Context(), userID)
	if err != nil && info == nil {
		h.logger.Error("failed to get user presence", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   gin.H{"code": "UPSTREAM_ERROR", "message": "Failed to fetch presence"},
		})
		return
	}

	c.JSON(http.StatusOK, info)
}

// GetUserOnline returns just the online flag.
func (h *PresenceHandler) GetUserOnline(c *gin.Context) {
	userID := c.Param("userId")

	status, err := h.presenceService.CheckUserOnline(c.Request.Context(), userID)
	if err != nil && status == nil {
		h.logger.Error("failed to check user online", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   gin.H{"code": "UPSTREAM_ERROR", "message": "Failed to fetch online status"},
		})
		return
	}

	c.JSON(http.StatusOK, status)
}

// GetBulkPresence returns presence for up to 100 users.
func (h *PresenceHandler) GetBulkPresence(c *gin.Context) {
	var req model.BulkPresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "BAD_REQUEST", "message": "Invalid request body"},
		})
		return
	}

	presences, err := h.presenceService.GetBulkPresence(c.Request.Context(), req.UserIDs)
	if err != nil {
		if errors.Is(err, presence.ErrTooManyIDs) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   gin.H{"code": "TOO_MANY_IDS", "message": err.Error()},
			})
			return
		}
		if presences == nil {
			h.logger.Error("failed to get bulk presence", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error":   gin.H{"code": "UPSTREAM_ERROR", "message": "Failed to fetch presence"},
			})
			return
		}
	}

	c.JSON(http.StatusOK, model.BulkPresenceResponse{Presences: presences})
}

// GetConversationOnline lists users online in a conversation.
func (h *PresenceHandler) GetConversationOnline(c *gin.Context) {
	conversationID := c.Param("conversationId")

	users, err := h.presenceService.GetConversationOnlineUsers(c.Request.Context(), conversationID)
	if err != nil && users == nil {
		h.logger.Error("failed to get conversation online users", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   gin.H{"code": "UPSTREAM_ERROR", "message": "Failed to fetch online users"},
		})
		return
	}

	c.JSON(http.StatusOK, model.ConversationOnlineResponse{
		ConversationID: conversationID,
		OnlineUsers:    users,
		Count:          len(users),
	})
}

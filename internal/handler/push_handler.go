package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-client/internal/push"
)

// PushHandler is the local enablement surface the prompt UI calls. It
// reads and drives the subscription manager; it never owns its state.
type PushHandler struct {
	manager *push.Manager
	flags   *push.FlagStore
	logger  *zap.Logger
}

func NewPushHandler(manager *push.Manager, flags *push.FlagStore, logger *zap.Logger) *PushHandler {
	return &PushHandler{
		manager: manager,
		flags:   flags,
		logger:  logger,
	}
}

// GetState returns the full enablement picture in one read.
func (h *PushHandler) GetState(c *gin.Context) {
	dismissed, err := h.flags.Get(push.FlagPromptDismissed)
	if err != nil {
		h.logger.Error("failed to read prompt-dismissed flag", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   gin.H{"code": "INTERNAL_ERROR", "message": "Failed to read push flags"},
		})
		return
	}
	enabled, err := h.flags.Get(push.FlagNotificationsEnabled)
	if err != nil {
		h.logger.Error("failed to read notifications-enabled flag", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   gin.H{"code": "INTERNAL_ERROR", "message": "Failed to read push flags"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"supported":             h.manager.Supported(),
		"permission":            h.manager.Permission(),
		"subscribed":            h.manager.Subscribed(),
		"should_prompt":         h.manager.ShouldPrompt(),
		"prompt_dismissed":      dismissed,
		"notifications_enabled": enabled,
	})
}

// Subscribe runs the enable flow.
func (h *PushHandler) Subscribe(c *gin.Context) {
	ok, err := h.manager.Subscribe(c.Request.Context())
	if err != nil {
		h.logger.Error("subscribe failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   gin.H{"code": "SUBSCRIBE_FAILED", "message": "Failed to subscribe"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscribed": ok})
}

// Dismiss records the user closing the enablement prompt.
func (h *PushHandler) Dismiss(c *gin.Context) {
	if err := h.manager.Dismiss(); err != nil {
		h.logger.Error("failed to persist dismissal", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   gin.H{"code": "INTERNAL_ERROR", "message": "Failed to persist dismissal"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"dismissed": true})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-client/internal/model"
	"campus-client/internal/worker"
)

// WorkerHandler bridges page contexts to the delivery worker. Pages
// attach their windows on load, detach on unload, and report notification
// clicks; the worker never shares memory with them.
type WorkerHandler struct {
	worker   *worker.Worker
	registry *worker.Registry
	notifier *worker.TrackingNotifier
	logger   *zap.Logger
}

func NewWorkerHandler(w *worker.Worker, registry *worker.Registry, notifier *worker.TrackingNotifier, logger *zap.Logger) *WorkerHandler {
	return &WorkerHandler{
		worker:   w,
		registry: registry,
		notifier: notifier,
		logger:   logger,
	}
}

// GetState reports the worker lifecycle state.
func (h *WorkerHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.worker.State()})
}

type attachWindowRequest struct {
	URL string `json:"url" binding:"required"`
}

// AttachWindow registers an open page window.
func (h *WorkerHandler) AttachWindow(c *gin.Context) {
	var req attachWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "BAD_REQUEST", "message": "url is required"},
		})
		return
	}

	id := h.registry.Attach(req.URL)
	c.JSON(http.StatusOK, gin.H{"window_id": id})
}

// DetachWindow removes a closed page window.
func (h *WorkerHandler) DetachWindow(c *gin.Context) {
	h.registry.Detach(c.Param("windowId"))
	c.JSON(http.StatusOK, gin.H{"detached": true})
}

// ListNotifications returns notifications currently displayed.
func (h *WorkerHandler) ListNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": h.notifier.Active()})
}

// Click reports a user clicking a displayed notification.
func (h *WorkerHandler) Click(c *gin.Context) {
	notificationID := c.Param("notificationId")

	var data model.RawPushMessage
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "BAD_REQUEST", "message": "Invalid click payload"},
		})
		return
	}

	if err := h.worker.HandleClick(c.Request.Context(), notificationID, data); err != nil {
		h.logger.Error("failed to handle notification click", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   gin.H{"code": "CLICK_FAILED", "message": "Failed to route click"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"routed": true})
}

// Closed reports a notification dismissed without a click.
func (h *WorkerHandler) Closed(c *gin.Context) {
	h.worker.HandleClose(c.Param("notificationId"))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

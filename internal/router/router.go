package router

import (
	"campus-client/internal/config"
	"campus-client/internal/handler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	commonmw "github.com/OrangesCloud/wealist-advanced-go-pkg/middleware"
)

func Setup(
	cfg *config.Config,
	logger *zap.Logger,
	healthHandler *handler.HealthHandler,
	presenceHandler *handler.PresenceHandler,
	pushHandler *handler.PushHandler,
	workerHandler *handler.WorkerHandler,
) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Middleware (using common package)
	r.Use(commonmw.Recovery(logger))
	r.Use(commonmw.Logger(logger))
	r.Use(commonmw.DefaultCORS())
	r.Use(commonmw.Metrics())

	// Health endpoints
	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Cached presence reads for the UI shell
	presenceRoutes := r.Group("/presence")
	{
		presenceRoutes.GET("/users/:userId", presenceHandler.GetUserPresence)
		presenceRoutes.GET("/users/:userId/online", presenceHandler.GetUserOnline)
		presenceRoutes.POST("/bulk", presenceHandler.GetBulkPresence)
		presenceRoutes.GET("/conversations/:conversationId/online", presenceHandler.GetConversationOnline)
	}

	// Push enablement surface for the prompt UI
	pushRoutes := r.Group("/push")
	{
		pushRoutes.GET("/state", pushHandler.GetState)
		pushRoutes.POST("/subscribe", pushHandler.Subscribe)
		pushRoutes.POST("/dismiss", pushHandler.Dismiss)
	}

	// Worker bridge for page contexts
	workerRoutes := r.Group("/worker")
	{
		workerRoutes.GET("/state", workerHandler.GetState)
		workerRoutes.POST("/windows", workerHandler.AttachWindow)
		workerRoutes.DELETE("/windows/:windowId", workerHandler.DetachWindow)
		workerRoutes.GET("/notifications", workerHandler.ListNotifications)
		workerRoutes.POST("/notifications/:notificationId/click", workerHandler.Click)
		workerRoutes.POST("/notifications/:notificationId/closed", workerHandler.Closed)
	}

	return r
}

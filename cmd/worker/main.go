package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"campus-client/internal/cache"
	"campus-client/internal/client"
	"campus-client/internal/config"
	"campus-client/internal/database"
	"campus-client/internal/handler"
	"campus-client/internal/presence"
	"campus-client/internal/push"
	"campus-client/internal/router"
	"campus-client/internal/worker"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	configPath := getEnv("CONFIG_PATH", "config.yaml")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Starting notification worker",
		zap.Int("port", cfg.Server.Port),
		zap.String("apiBaseURL", cfg.API.BaseURL),
		zap.String("pushUserId", cfg.Push.UserID))

	// Durable flag store
	flags, err := push.OpenFlagStore(cfg.Push.FlagsPath)
	if err != nil {
		logger.Fatal("Failed to open flag store", zap.Error(err))
	}
	defer flags.Close()

	// Redis connection (push transport)
	redisClient := database.NewRedisClient(cfg.Redis, logger)

	// Presence layer
	tokens := client.StaticTokenSource(cfg.API.Token)
	presenceClient := client.NewPresenceClient(cfg.API.BaseURL, tokens,
		time.Duration(cfg.Presence.TimeoutSeconds)*time.Second)
	presenceCache := cache.New(logger)
	defer presenceCache.Close()
	presenceService := presence.NewService(presenceClient, presenceCache, logger)

	// Push subscription manager
	platform := push.NewConfigPlatform(
		cfg.Push.Supported,
		push.Permission(cfg.Push.Permission),
		push.PermissionGranted,
		webpush.Subscription{
			Endpoint: cfg.Push.Endpoint,
			Keys: webpush.Keys{
				P256dh: cfg.Push.P256dhKey,
				Auth:   cfg.Push.AuthKey,
			},
		},
	)
	registrar := push.NewRESTRegistrar(cfg.API.BaseURL, tokens,
		time.Duration(cfg.Presence.TimeoutSeconds)*time.Second)
	pushManager := push.NewManager(platform, registrar, flags, logger)

	// Notification delivery worker
	notifier := worker.NewTrackingNotifier(logger)
	registry := worker.NewRegistry()
	deliveryWorker := worker.New(notifier, registry, logger)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	if err := deliveryWorker.Install(workerCtx); err != nil {
		logger.Fatal("Failed to install worker", zap.Error(err))
	}
	if err := deliveryWorker.Activate(workerCtx); err != nil {
		logger.Fatal("Failed to activate worker", zap.Error(err))
	}

	if cfg.Push.UserID != "" {
		subscriber := worker.NewSubscriber(redisClient, deliveryWorker, logger)
		go func() {
			if err := subscriber.Run(workerCtx, cfg.Push.UserID); err != nil && workerCtx.Err() == nil {
				logger.Error("Push subscriber stopped", zap.Error(err))
			}
		}()
	} else {
		logger.Warn("PUSH_USER_ID not set, push delivery disabled")
	}

	// Handlers
	healthHandler := handler.NewHealthHandler(flags, redisClient)
	presenceHandler := handler.NewPresenceHandler(presenceService, logger)
	pushHandler := handler.NewPushHandler(pushManager, flags, logger)
	workerHandler := handler.NewWorkerHandler(deliveryWorker, registry, notifier, logger)

	r := router.Setup(cfg, logger, healthHandler, presenceHandler, pushHandler, workerHandler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		logger.Info("Notification worker started",
			zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown: stop taking events, drain in-flight display work.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down notification worker")
	stopWorker()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer drainCancel()
	if err := deliveryWorker.Drain(drainCtx); err != nil {
		logger.Warn("Worker drain timed out", zap.Error(err))
	}
	if err := srv.Shutdown(drainCtx); err != nil {
		logger.Warn("Server shutdown failed", zap.Error(err))
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// internal/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"campus-client/internal/config"
)

// NewRedisClient connects to the push broker. A dead broker is reported
// but not fatal: the worker can come up and start delivering once the
// broker returns.
func NewRedisClient(cfg config.RedisConfig, logger *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not reachable", zap.Error(err))
	} else {
		logger.Info("redis connected",
			zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)))
	}

	return client
}

// internal/worker/transport.go
package worker

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Subscriber feeds push events from the broker into the worker. Each user
// has a dedicated channel; the server publishes one message per push.
type Subscriber struct {
	redis  *redis.Client
	worker *Worker
	logger *zap.Logger
}

func NewSubscriber(redisClient *redis.Client, w *Worker, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		redis:  redisClient,
		worker: w,
		logger: logger,
	}
}

// Run blocks consuming push events for userID until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context, userID string) error {
	channel := fmt.Sprintf("push:user:%s", userID)

	pubsub := s.redis.Subscribe(ctx, channel)
	defer pubsub.Close()

	// Fail fast if the subscription itself did not take.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	s.logger.Info("subscribed to push channel", zap.String("channel", channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("push channel %s closed", channel)
			}
			s.worker.HandlePush(ctx, []byte(msg.Payload))
		}
	}
}

// internal/presence/service.go
package presence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"campus-client/internal/cache"
	"campus-client/internal/client"
	"campus-client/internal/model"
)

// ErrTooManyIDs is returned when a bulk query exceeds the server's limit.
var ErrTooManyIDs = errors.New("bulk presence query limited to 100 user ids")

// MaxBulkIDs is the server-side cap on POST /presence/bulk.
const MaxBulkIDs = 100

// Freshness tiers. The online-only check is cheaper and feeds indicator
// widgets, so it refreshes on a tighter window than the full queries.
var (
	fullPresenceOpts = cache.Options{StaleAfter: 30 * time.Second, RefreshEvery: 30 * time.Second}
	onlineCheckOpts  = cache.Options{StaleAfter: 15 * time.Second, RefreshEvery: 15 * time.Second}
)

// Service answers presence questions from cache, falling back to
// deduplicated remote fetches. Empty keys disable the query instead of
// erroring so that views can pass optional ids straight through.
type Service struct {
	client client.PresenceClient
	cache  *cache.Cache
	logger *zap.Logger
}

func NewService(presenceClient client.PresenceClient, c *cache.Cache, logger *zap.Logger) *Service {
	return &Service{
		client: presenceClient,
		cache:  c,
		logger: logger,
	}
}

// GetUserPresence returns the full presence record for one user.
func (s *Service) GetUserPresence(ctx context.Context, userID string) (*model.PresenceInfo, error) {
	if userID == "" {
		return nil, nil
	}

	key := userKey(userID)
	value, err := s.cache.Get(ctx, key, fullPresenceOpts, func(ctx context.Context) (interface{}, error) {
		return s.client.GetUserPresence(ctx, userID)
	})
	if value == nil {
		return nil, err
	}
	return value.(*model.PresenceInfo), err
}

// CheckUserOnline returns just the boolean online flag for one user.
func (s *Service) CheckUserOnline(ctx context.Context, userID string) (*model.OnlineStatus, error) {
	if userID == "" {
		return nil, nil
	}

	key := onlineKey(userID)
	value, err := s.cache.Get(ctx, key, onlineCheckOpts, func(ctx context.Context) (interface{}, error) {
		return s.client.CheckUserOnline(ctx, userID)
	})
	if value == nil {
		return nil, err
	}
	return value.(*model.OnlineStatus), err
}

// GetBulkPresence returns presence for up to MaxBulkIDs users in one
// round trip. The cache key is order-independent.
func (s *Service) GetBulkPresence(ctx context.Context, userIDs []string) (map[string]model.PresenceInfo, error) {
	if len(userIDs) == 0 {
		return map[string]model.PresenceInfo{}, nil
	}
	if len(userIDs) > MaxBulkIDs {
		return nil, fmt.Errorf("%w: got %d", ErrTooManyIDs, len(userIDs))
	}

	key := BulkKey(userIDs)
	value, err := s.cache.Get(ctx, key, fullPresenceOpts, func(ctx context.Context) (interface{}, error) {
		return s.client.GetBulkPresence(ctx, userIDs)
	})
	if value == nil {
		return nil, err
	}
	return value.(map[string]model.PresenceInfo), err
}

// GetConversationOnlineUsers lists users currently online in a
// conversation.
func (s *Service) GetConversationOnlineUsers(ctx context.Context, conversationID string) ([]model.PresenceInfo, error) {
	if conversationID == "" {
		return nil, nil
	}

	key := conversationKey(conversationID)
	value, err := s.cache.Get(ctx, key, fullPresenceOpts, func(ctx context.Context) (interface{}, error) {
		return s.client.GetConversationOnlineUsers(ctx, conversationID)
	})
	if value == nil {
		return nil, err
	}
	return value.([]model.PresenceInfo), err
}

// WatchUserPresence keeps the full presence record for userID refreshing
// in the background until the returned stop func is called. Views call
// this on mount and defer the stop on unmount.
func (s *Service) WatchUserPresence(userID string) func() {
	if userID == "" {
		return func() {}
	}

	key := userKey(userID)
	s.cache.Watch(key, fullPresenceOpts, func(ctx context.Context) (interface{}, error) {
		return s.client.GetUserPresence(ctx, userID)
	})
	return func() { s.cache.Unwatch(key) }
}

// WatchUserOnline keeps the online flag for userID refreshing on the
// tighter indicator cadence.
func (s *Service) WatchUserOnline(userID string) func() {
	if userID == "" {
		return func() {}
	}

	key := onlineKey(userID)
	s.cache.Watch(key, onlineCheckOpts, func(ctx context.Context) (interface{}, error) {
		return s.client.CheckUserOnline(ctx, userID)
	})
	return func() { s.cache.Unwatch(key) }
}

// WatchConversationOnline keeps a conversation's online roster refreshing.
func (s *Service) WatchConversationOnline(conversationID string) func() {
	if conversationID == "" {
		return func() {}
	}

	key := conversationKey(conversationID)
	s.cache.Watch(key, fullPresenceOpts, func(ctx context.Context) (interface{}, error) {
		return s.client.GetConversationOnlineUsers(ctx, conversationID)
	})
	return func() { s.cache.Unwatch(key) }
}

func userKey(userID string) string {
	return "presence:user:" + userID
}

func onlineKey(userID string) string {
	return "presence:online:" + userID
}

func conversationKey(conversationID string) string {
	return "presence:conversation:" + conversationID
}

// BulkKey builds the cache key for a bulk query. Ids are sorted so that
// permutations of the same set address the same entry.
func BulkKey(userIDs []string) string {
	sorted := make([]string, len(userIDs))
	copy(sorted, userIDs)
	sort.Strings(sorted)
	return "presence:bulk:" + strings.Join(sorted, ",")
}

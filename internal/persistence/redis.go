package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/amendment-service/internal/config"
)

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

const unreadCountTTL = 5 * time.Minute

func unreadCountKey(recipientID string) string {
	return "notifications:unread:" + recipientID
}

// GetUnreadCount reads the cached unread notification count for a recipient.
// The bool result reports a cache hit.
func (r *Redis) GetUnreadCount(ctx context.Context, recipientID string) (int, bool) {
	if r == nil || r.Client == nil {
		return 0, false
	}
	val, err := r.Client.Get(ctx, unreadCountKey(recipientID)).Int()
	if err != nil {
		return 0, false
	}
	return val, true
}

// SetUnreadCount caches the unread notification count for a recipient.
func (r *Redis) SetUnreadCount(ctx context.Context, recipientID string, count int) {
	if r == nil || r.Client == nil {
		return
	}
	_ = r.Client.Set(ctx, unreadCountKey(recipientID), count, unreadCountTTL).Err()
}

// InvalidateUnreadCount drops the cached count after any write that could
// change it.
func (r *Redis) InvalidateUnreadCount(ctx context.Context, recipientIDs ...string) {
	if r == nil || r.Client == nil || len(recipientIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		keys = append(keys, unreadCountKey(id))
	}
	_ = r.Client.Del(ctx, keys...).Err()
}

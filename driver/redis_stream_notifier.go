package driver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"ad-monitor/config"
	"ad-monitor/domain"
)

// RedisStreamNotifier publishes newly discovered listings to a Redis Stream.
type RedisStreamNotifier struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *slog.Logger
}

// NewRedisStreamNotifier connects to the Redis URL from the notifier config.
func NewRedisStreamNotifier(cfg config.NotifierConfig, logger *slog.Logger) (*RedisStreamNotifier, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return NewRedisStreamNotifierWithClient(redis.NewClient(opts), cfg.Stream, cfg.MaxLen, logger), nil
}

func NewRedisStreamNotifierWithClient(client *redis.Client, stream string, maxLen int64, logger *slog.Logger) *RedisStreamNotifier {
	return &RedisStreamNotifier{
		client: client,
		stream: stream,
		maxLen: maxLen,
		logger: logger,
	}
}

// Notify appends one entry per listing. The stream is trimmed approximately to maxLen.
func (n *RedisStreamNotifier) Notify(ctx context.Context, listing domain.Listing) error {
	args := &redis.XAddArgs{
		Stream: n.stream,
		Values: map[string]any{
			"ad_id":      listing.AdID,
			"title":      listing.Title,
			"price":      listing.Price,
			"url":        listing.URL,
			"first_seen": listing.FirstSeen.UTC().Format(time.RFC3339),
		},
	}
	if n.maxLen > 0 {
		args.MaxLen = n.maxLen
		args.Approx = true
	}

	id, err := n.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to publish listing %s: %w", listing.AdID, err)
	}
	n.logger.DebugContext(ctx, "published listing", "ad_id", listing.AdID, "stream", n.stream, "message_id", id)
	return nil
}

func (n *RedisStreamNotifier) Ping(ctx context.Context) error {
	return n.client.Ping(ctx).Err()
}

func (n *RedisStreamNotifier) Close() error {
	return n.client.Close()
}

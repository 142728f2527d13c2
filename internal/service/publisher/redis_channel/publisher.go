// Package redis_channel publishes posts as JSON messages on Redis pub/sub
// channels, one channel per platform.
package redis_channel

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ifuryst/murmur/internal/config"
	"github.com/ifuryst/murmur/internal/service/publisher"
)

const PlatformName = "redis"

const pingTimeout = 5 * time.Second

type Publisher struct {
	client        *redis.Client
	channelPrefix string
	logger        *zap.Logger
}

// NewClient connects and pings Redis.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func NewRedisPublisher(client *redis.Client, channelPrefix string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:        client,
		channelPrefix: channelPrefix,
		logger:        logger,
	}
}

func (p *Publisher) GetPlatformName() string {
	return PlatformName
}

// Channel returns the channel a platform's posts are published on.
func (p *Publisher) Channel(content publisher.PublishContent) string {
	return fmt.Sprintf("%s:%s", p.channelPrefix, content.Platform)
}

func (p *Publisher) Publish(ctx context.Context, content publisher.PublishContent) (*publisher.PublishResult, error) {
	payload, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal post: %w", err)
	}

	channel := p.Channel(content)
	receivers, err := p.client.Publish(ctx, channel, payload).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	p.logger.Info("Post published to redis",
		zap.String("channel", channel),
		zap.String("post_id", content.PostID),
		zap.Int64("receivers", receivers))

	return &publisher.PublishResult{
		Success:   true,
		PublishID: content.PostID,
		Metadata: map[string]string{
			"channel":   channel,
			"receivers": fmt.Sprintf("%d", receivers),
		},
		PublishedAt: time.Now(),
	}, nil
}

func (p *Publisher) Close() error {
	return p.client.Close()
}

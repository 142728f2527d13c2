// Package console prints posts instead of sending them to a network.
package console

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ifuryst/murmur/internal/service/publisher"
)

const PlatformName = "console"

type Publisher struct {
	out    io.Writer
	logger *zap.Logger
	mu     sync.Mutex
}

func NewConsolePublisher(out io.Writer, logger *zap.Logger) *Publisher {
	return &Publisher{out: out, logger: logger}
}

func (p *Publisher) GetPlatformName() string {
	return PlatformName
}

func (p *Publisher) Publish(ctx context.Context, content publisher.PublishContent) (*publisher.PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	_, err := fmt.Fprintf(p.out, "\nPublishing to %s:\n%s\n", content.Platform.DisplayName(), content.Body)
	p.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to write post: %w", err)
	}

	p.logger.Info("Post published to console",
		zap.String("post_id", content.PostID),
		zap.String("platform", string(content.Platform)))

	return &publisher.PublishResult{
		Success:     true,
		PublishID:   content.PostID,
		PublishedAt: time.Now(),
	}, nil
}

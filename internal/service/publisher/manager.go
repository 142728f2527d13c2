package publisher

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Manager routes a post to the publisher registered under its platform, or
// to the default sink when none is.
type Manager struct {
	mu          sync.RWMutex
	publishers  map[string]Publisher
	defaultSink Publisher
	logger      *zap.Logger
}

func NewPublishManager(logger *zap.Logger, defaultSink Publisher) *Manager {
	return &Manager{
		publishers:  make(map[string]Publisher),
		defaultSink: defaultSink,
		logger:      logger,
	}
}

func (m *Manager) RegisterPublisher(publisher Publisher) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	platformName := publisher.GetPlatformName()
	if _, exists := m.publishers[platformName]; exists {
		return fmt.Errorf("publisher for platform %s already registered", platformName)
	}

	m.publishers[platformName] = publisher
	m.logger.Info("Publisher registered", zap.String("platform", platformName))
	return nil
}

func (m *Manager) GetPublisher(platformName string) (Publisher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if publisher, exists := m.publishers[platformName]; exists {
		return publisher, nil
	}
	if m.defaultSink != nil {
		return m.defaultSink, nil
	}
	return nil, fmt.Errorf("publisher for platform %s not found", platformName)
}

// Publish sends content through the resolved publisher. A result with
// Success false is reported as an error.
func (m *Manager) Publish(ctx context.Context, content PublishContent) (*PublishResult, error) {
	platformName := string(content.Platform)
	publisher, err := m.GetPublisher(platformName)
	if err != nil {
		return nil, err
	}

	result, err := publisher.Publish(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", publisher.GetPlatformName(), err)
	}
	if result == nil || !result.Success {
		return result, fmt.Errorf("%s: publish was not accepted", publisher.GetPlatformName())
	}

	m.logger.Info("Publishing completed",
		zap.String("platform", platformName),
		zap.String("sink", publisher.GetPlatformName()),
		zap.String("post_id", content.PostID),
		zap.String("publish_id", result.PublishID))
	return result, nil
}

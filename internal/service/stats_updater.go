package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StatsUpdater handles periodic library gauge updates
type StatsUpdater struct {
	monitoringService *MonitoringService
	logger            *zap.Logger
	ticker            *time.Ticker
	done              chan bool
	stopOnce          sync.Once
}

// NewStatsUpdater creates a new stats updater
func NewStatsUpdater(monitoringService *MonitoringService, logger *zap.Logger, interval time.Duration) *StatsUpdater {
	return &StatsUpdater{
		monitoringService: monitoringService,
		logger:            logger,
		ticker:            time.NewTicker(interval),
		done:              make(chan bool),
	}
}

// Start begins the periodic stats update process
func (s *StatsUpdater) Start(ctx context.Context) {
	s.updateStats(ctx)
	go func() {
		s.logger.Info("Starting stats updater")
		for {
			select {
			case <-s.done:
				s.logger.Info("Stats updater stopped")
				return
			case <-ctx.Done():
				s.logger.Info("Stats updater stopped due to context cancellation")
				return
			case <-s.ticker.C:
				s.updateStats(ctx)
			}
		}
	}()
}

// Stop stops the stats updater
func (s *StatsUpdater) Stop() {
	s.stopOnce.Do(func() {
		s.ticker.Stop()
		close(s.done)
	})
}

func (s *StatsUpdater) updateStats(ctx context.Context) {
	if err := s.monitoringService.UpdateLibraryStats(ctx); err != nil {
		s.logger.Error("Failed to update library stats", zap.Error(err))
		return
	}
	s.logger.Debug("Library stats updated")
}

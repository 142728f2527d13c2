package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ifuryst/murmur/internal/config"
	"github.com/ifuryst/murmur/internal/models"
	"github.com/ifuryst/murmur/internal/service/publisher"
	"github.com/ifuryst/murmur/internal/store"
)

// PostPublisher performs the publish side effect for one post.
type PostPublisher interface {
	Publish(ctx context.Context, content publisher.PublishContent) (*publisher.PublishResult, error)
}

// TickResult summarizes one scan of due entries.
type TickResult struct {
	Published int `json:"published"`
	Failed    int `json:"failed"`
	Pending   int `json:"pending"`
}

type SchedulerOption func(*Scheduler)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.now = now
	}
}

type Scheduler struct {
	config     *config.SchedulerConfig
	store      store.Store
	publisher  PostPublisher
	monitoring *MonitoringService
	logger     *zap.Logger
	now        func() time.Time

	// tickMu serializes ticks so a manual tick and the loop never publish the
	// same entry twice.
	tickMu sync.Mutex

	ticker   *time.Ticker
	cron     *cron.Cron
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewScheduler(cfg *config.SchedulerConfig, st store.Store, pub PostPublisher, monitoring *MonitoringService, logger *zap.Logger, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		config:     cfg,
		store:      st,
		publisher:  pub,
		monitoring: monitoring,
		logger:     logger,
		now:        time.Now,
		stopCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule creates a pending entry for postID at when and marks the post
// scheduled. A published post, or one that already has a pending entry,
// cannot be scheduled again.
func (s *Scheduler) Schedule(ctx context.Context, postID string, when time.Time) (*models.ScheduledEntry, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entry := &models.ScheduledEntry{
		ID:            uuid.NewString(),
		PostID:        post.ID,
		ScheduledTime: when,
		Status:        models.EntryPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.ScheduleEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("cannot schedule post %s: %w", post.ID, err)
	}

	s.logger.Info("Post scheduled",
		zap.String("post_id", post.ID),
		zap.String("platform", string(post.Platform)),
		zap.Time("scheduled_time", when))
	return entry, nil
}

// Tick publishes every pending entry whose time has come. Each due entry ends
// up published or failed; entries in the future stay pending.
func (s *Scheduler) Tick(ctx context.Context) (*TickResult, error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	if s.monitoring != nil {
		s.monitoring.RecordTick()
	}

	entries, err := s.store.ListEntries(ctx, store.EntryFilter{Status: models.EntryPending})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending entries: %w", err)
	}

	now := s.now()
	result := &TickResult{}
	for i := range entries {
		entry := &entries[i]
		if !entry.Due(now) {
			result.Pending++
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		status, err := s.publishEntry(ctx, entry)
		if err != nil {
			if errors.Is(err, store.ErrStatusConflict) {
				s.logger.Warn("Entry already processed", zap.String("entry_id", entry.ID))
				continue
			}
			s.logger.Error("Failed to record publish outcome", zap.String("entry_id", entry.ID), zap.Error(err))
			continue
		}
		switch status {
		case models.EntryPublished:
			result.Published++
		case models.EntryFailed:
			result.Failed++
		}
	}

	if result.Published > 0 || result.Failed > 0 {
		s.logger.Info("Scheduler tick completed",
			zap.Int("published", result.Published),
			zap.Int("failed", result.Failed),
			zap.Int("pending", result.Pending))
	}
	return result, nil
}

func (s *Scheduler) publishEntry(ctx context.Context, entry *models.ScheduledEntry) (models.EntryStatus, error) {
	start := time.Now()

	post, err := s.store.GetPost(ctx, entry.PostID)
	if err != nil {
		return s.fail(ctx, entry, "", fmt.Errorf("load post: %w", err), start)
	}
	if post.Status == models.PostPublished {
		return s.fail(ctx, entry, post.Platform, fmt.Errorf("post %s is already published", post.ID), start)
	}

	content, err := s.store.GetContent(ctx, post.ContentID)
	if err != nil {
		s.logger.Warn("Publishing post without its source", zap.String("post_id", post.ID), zap.Error(err))
		content = nil
	}

	payload := publisher.FromPost(post, content)
	payload.EntryID = entry.ID
	scheduled := entry.ScheduledTime
	payload.ScheduledTime = &scheduled

	if _, err := s.publisher.Publish(ctx, *payload); err != nil {
		return s.fail(ctx, entry, post.Platform, err, start)
	}

	now := s.now()
	if err := s.store.TransitionEntry(ctx, entry.ID, models.EntryPending, models.EntryPublished, "", now); err != nil {
		return "", err
	}
	if post.Status == models.PostScheduled {
		if err := s.store.TransitionPost(ctx, post.ID, models.PostScheduled, models.PostPublished, now); err != nil && !errors.Is(err, store.ErrStatusConflict) {
			s.logger.Error("Failed to mark post published", zap.String("post_id", post.ID), zap.Error(err))
		}
	}

	if s.monitoring != nil {
		s.monitoring.RecordPublish(post.Platform, models.EntryPublished, time.Since(start))
	}
	s.logger.Info("Scheduled post published",
		zap.String("entry_id", entry.ID),
		zap.String("post_id", post.ID),
		zap.String("platform", string(post.Platform)))
	return models.EntryPublished, nil
}

func (s *Scheduler) fail(ctx context.Context, entry *models.ScheduledEntry, platform models.Platform, cause error, start time.Time) (models.EntryStatus, error) {
	if err := s.store.TransitionEntry(ctx, entry.ID, models.EntryPending, models.EntryFailed, cause.Error(), s.now()); err != nil {
		return "", err
	}
	if s.monitoring != nil {
		s.monitoring.RecordPublish(platform, models.EntryFailed, time.Since(start))
		s.monitoring.RecordError("ERROR", "scheduler", "Failed to publish scheduled post", cause.Error(),
			WithPlatform(string(platform)),
			WithPost(entry.PostID),
			WithEntry(entry.ID))
	} else {
		s.logger.Error("Failed to publish scheduled post", zap.String("entry_id", entry.ID), zap.Error(cause))
	}
	return models.EntryFailed, nil
}

// Start runs one tick right away, so entries that became due while the
// process was down go out immediately, then keeps ticking on the configured
// interval or cron spec until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.IsEnabled() {
		s.logger.Info("Scheduler is disabled")
		return nil
	}

	if s.config.Cron != "" {
		return s.startCron(ctx)
	}

	interval, err := time.ParseDuration(s.config.Interval)
	if err != nil {
		s.logger.Error("Invalid scheduler interval", zap.String("interval", s.config.Interval), zap.Error(err))
		return err
	}
	if interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", s.config.Interval)
	}

	s.logger.Info("Starting scheduler", zap.String("interval", s.config.Interval))
	s.ticker = time.NewTicker(interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runTick(ctx)
		for {
			select {
			case <-s.ticker.C:
				s.runTick(ctx)
			case <-s.stopCh:
				s.logger.Info("Scheduler stopped")
				return
			case <-ctx.Done():
				s.logger.Info("Scheduler context cancelled")
				return
			}
		}
	}()

	return nil
}

func (s *Scheduler) startCron(ctx context.Context) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	s.cron = cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if _, err := s.cron.AddFunc(s.config.Cron, func() { s.runTick(ctx) }); err != nil {
		return fmt.Errorf("invalid scheduler cron %q: %w", s.config.Cron, err)
	}

	s.logger.Info("Starting scheduler", zap.String("cron", s.config.Cron))
	s.cron.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runTick(ctx)
		select {
		case <-s.stopCh:
		case <-ctx.Done():
		}
		<-s.cron.Stop().Done()
		s.logger.Info("Scheduler stopped")
	}()
	return nil
}

// Stop ends the loop and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
	})
	s.wg.Wait()
	s.logger.Info("Scheduler shutdown completed")
}

func (s *Scheduler) runTick(ctx context.Context) {
	start := time.Now()
	if _, err := s.Tick(ctx); err != nil {
		s.logger.Error("Scheduler tick failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
	}
}

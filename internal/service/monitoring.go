package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/ifuryst/murmur/internal/models"
	"github.com/ifuryst/murmur/internal/store"
)

// MonitoringService owns the Prometheus collectors and the structured error
// log. Each instance has its own registry.
type MonitoringService struct {
	store    store.Store
	logger   *zap.Logger
	registry *prometheus.Registry

	publishTotal    *prometheus.CounterVec
	publishDuration prometheus.Histogram
	generateTotal   *prometheus.CounterVec
	ticksTotal      prometheus.Counter
	errorsTotal     *prometheus.CounterVec
	library         *prometheus.GaugeVec
}

func NewMonitoringService(st store.Store, logger *zap.Logger) *MonitoringService {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &MonitoringService{
		store:    st,
		logger:   logger,
		registry: reg,
		publishTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "murmur",
				Name:      "publish_total",
				Help:      "Scheduled entries processed, by platform and outcome",
			},
			[]string{"platform", "status"},
		),
		publishDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "murmur",
				Name:      "publish_duration_seconds",
				Help:      "Time spent in the publish side effect",
				Buckets:   prometheus.DefBuckets,
			},
		),
		generateTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "murmur",
				Name:      "contents_processed_total",
				Help:      "URLs processed, by outcome",
			},
			[]string{"status"},
		),
		ticksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "murmur",
				Name:      "scheduler_ticks_total",
				Help:      "Scheduler due-entry scans",
			},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "murmur",
				Name:      "errors_total",
				Help:      "Recorded errors, by source and level",
			},
			[]string{"source", "level"},
		),
		library: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "murmur",
				Name:      "library_items",
				Help:      "Library size by kind and status",
			},
			[]string{"kind", "status"},
		),
	}
}

// Registry exposes the collectors for the /metrics handler.
func (m *MonitoringService) Registry() *prometheus.Registry {
	return m.registry
}

// RecordError logs a structured error event and counts it.
func (m *MonitoringService) RecordError(level, source, title, message string, options ...ErrorLogOption) *models.ErrorLog {
	errorLog := &models.ErrorLog{
		Level:     level,
		Source:    source,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}

	for _, option := range options {
		option(errorLog)
	}

	m.errorsTotal.WithLabelValues(source, level).Inc()

	fields := []zap.Field{
		zap.String("source", errorLog.Source),
		zap.String("message", errorLog.Message),
	}
	if errorLog.PlatformName != "" {
		fields = append(fields, zap.String("platform", errorLog.PlatformName))
	}
	if errorLog.PostID != "" {
		fields = append(fields, zap.String("post_id", errorLog.PostID))
	}
	if errorLog.EntryID != "" {
		fields = append(fields, zap.String("entry_id", errorLog.EntryID))
	}
	if errorLog.Context != "" {
		fields = append(fields, zap.String("context", errorLog.Context))
	}

	switch level {
	case "WARN":
		m.logger.Warn(title, fields...)
	case "INFO":
		m.logger.Info(title, fields...)
	default:
		m.logger.Error(title, fields...)
	}
	return errorLog
}

// ErrorLogOption sets optional fields on a recorded error.
type ErrorLogOption func(*models.ErrorLog)

func WithPlatform(platformName string) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.PlatformName = platformName
	}
}

func WithPost(postID string) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.PostID = postID
	}
}

func WithEntry(entryID string) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.EntryID = entryID
	}
}

func WithContext(context map[string]interface{}) ErrorLogOption {
	return func(e *models.ErrorLog) {
		if contextBytes, err := json.Marshal(context); err == nil {
			e.Context = string(contextBytes)
		}
	}
}

// RecordPublish counts one processed entry.
func (m *MonitoringService) RecordPublish(platform models.Platform, status models.EntryStatus, duration time.Duration) {
	m.publishTotal.WithLabelValues(string(platform), string(status)).Inc()
	m.publishDuration.Observe(duration.Seconds())
}

func (m *MonitoringService) RecordProcessed(status string) {
	m.generateTotal.WithLabelValues(status).Inc()
}

func (m *MonitoringService) RecordTick() {
	m.ticksTotal.Inc()
}

// LibraryStats counts the current library.
func (m *MonitoringService) LibraryStats(ctx context.Context) (*models.LibraryStats, error) {
	contents, err := m.store.ListContents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contents: %w", err)
	}
	posts, err := m.store.ListPosts(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	entries, err := m.store.ListEntries(ctx, store.EntryFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	stats := models.CountLibrary(contents, posts, entries)
	return &stats, nil
}

// UpdateLibraryStats refreshes the library gauges.
func (m *MonitoringService) UpdateLibraryStats(ctx context.Context) error {
	stats, err := m.LibraryStats(ctx)
	if err != nil {
		return err
	}

	m.library.WithLabelValues("content", "all").Set(float64(stats.Contents))
	m.library.WithLabelValues("post", string(models.PostDraft)).Set(float64(stats.DraftPosts))
	m.library.WithLabelValues("post", string(models.PostScheduled)).Set(float64(stats.ScheduledPosts))
	m.library.WithLabelValues("post", string(models.PostPublished)).Set(float64(stats.PublishedPosts))
	m.library.WithLabelValues("entry", string(models.EntryPending)).Set(float64(stats.PendingEntries))
	m.library.WithLabelValues("entry", string(models.EntryPublished)).Set(float64(stats.PublishedEntries))
	m.library.WithLabelValues("entry", string(models.EntryFailed)).Set(float64(stats.FailedEntries))
	return nil
}

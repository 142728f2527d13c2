package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ifuryst/murmur/internal/config"
	"github.com/ifuryst/murmur/internal/service"
	"github.com/ifuryst/murmur/internal/service/extractor"
	"github.com/ifuryst/murmur/internal/service/generator"
	"github.com/ifuryst/murmur/internal/service/publisher"
	"github.com/ifuryst/murmur/internal/service/publisher/console"
	"github.com/ifuryst/murmur/internal/service/publisher/redis_channel"
	"github.com/ifuryst/murmur/internal/store"
	"github.com/ifuryst/murmur/pkg/logger"
)

// app holds everything a command needs, built once from the config file.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	store      store.Store
	monitoring *service.MonitoringService
	scheduler  *service.Scheduler
	assistant  *service.Assistant

	closers []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	appLogger, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, logger: appLogger}

	st, err := store.Open(&cfg.Storage, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	a.store = st
	a.closers = append(a.closers, st.Close)
	if err := st.Load(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load library: %w", err)
	}

	ext, err := extractor.NewService(&cfg.Extractor, appLogger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	provider, err := generator.NewProvider(&cfg.Generator)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}
	gen := generator.NewGenerator(provider, &cfg.Generator, appLogger)

	sink, err := a.newSink(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	publishers := publisher.NewPublishManager(appLogger, sink)

	a.monitoring = service.NewMonitoringService(st, appLogger)
	a.scheduler = service.NewScheduler(&cfg.Scheduler, st, publishers, a.monitoring, appLogger)
	feeds := service.NewFeedReader(&cfg.Extractor, appLogger)
	a.assistant = service.NewAssistant(st, ext, gen, a.scheduler, a.monitoring, feeds, appLogger)

	appLogger.Debug("Application initialized",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("provider", provider.Name()),
		zap.String("sink", sink.GetPlatformName()))
	return a, nil
}

func (a *app) newSink(ctx context.Context) (publisher.Publisher, error) {
	switch a.cfg.Publisher.Sink {
	case "", "console":
		return console.NewConsolePublisher(os.Stdout, a.logger), nil
	case "redis":
		client, err := redis_channel.NewClient(ctx, &a.cfg.Publisher.Redis)
		if err != nil {
			return nil, err
		}
		p := redis_channel.NewRedisPublisher(client, a.cfg.Publisher.Redis.ChannelPrefix, a.logger)
		a.closers = append(a.closers, p.Close)
		return p, nil
	default:
		return nil, fmt.Errorf("unknown publisher sink %q", a.cfg.Publisher.Sink)
	}
}

// Close releases the store and sink in reverse order and flushes the logger.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Failed to close resource", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

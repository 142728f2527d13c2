package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ifuryst/murmur/internal/config"
	"github.com/ifuryst/murmur/internal/service"
)

type Server struct {
	Config *config.ServerConfig
	Router *gin.Engine
	Logger *zap.Logger
	Server *http.Server

	// Services
	Assistant    *service.Assistant
	Scheduler    *service.Scheduler
	Auth         *service.AuthService
	Monitoring   *service.MonitoringService
	StatsUpdater *service.StatsUpdater
}

func NewServer(cfg *config.ServerConfig, assistant *service.Assistant, scheduler *service.Scheduler, monitoring *service.MonitoringService, logger *zap.Logger) *Server {
	gin.SetMode(cfg.Mode)

	router := gin.New()

	srv := &Server{
		Config:       cfg,
		Router:       router,
		Logger:       logger,
		Assistant:    assistant,
		Scheduler:    scheduler,
		Auth:         service.NewAuthService(logger, cfg.TOTPSecret),
		Monitoring:   monitoring,
		StatsUpdater: service.NewStatsUpdater(monitoring, logger, time.Minute),
	}

	srv.setupMiddleware()
	srv.setupRoutes()

	return srv
}

func (s *Server) setupMiddleware() {
	s.Router.Use(gin.Recovery())

	s.Router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health", "/metrics"},
	}))

	// CORS middleware
	s.Router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})
	s.Router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Monitoring.Registry(), promhttp.HandlerOpts{})))

	api := s.Router.Group("/api/v1")
	api.Use(s.Auth.AuthMiddleware())
	{
		api.POST("/auth/login", s.handleLogin)

		contents := api.Group("/contents")
		{
			contents.GET("", s.handleListContents)
			contents.POST("", s.handleProcessURL)
			contents.GET("/:id", s.handleGetContent)
			contents.GET("/:id/posts", s.handleListPosts)
		}

		api.POST("/feeds", s.handleProcessFeed)

		schedules := api.Group("/schedules")
		{
			schedules.GET("", s.handleListSchedules)
			schedules.POST("", s.handleSchedulePost)
		}

		api.POST("/scheduler/tick", s.handleTick)
		api.GET("/stats", s.handleStats)
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s.Scheduler != nil {
		if err := s.Scheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}
	s.StatsUpdater.Start(ctx)

	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)

	s.Server = &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.Logger.Info("Starting HTTP server",
		zap.String("addr", addr),
		zap.Bool("auth", s.Auth.Enabled()))

	if err := s.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.Scheduler != nil {
		s.Scheduler.Stop()
	}
	s.StatsUpdater.Stop()

	if s.Server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.Server.Shutdown(shutdownCtx)
}

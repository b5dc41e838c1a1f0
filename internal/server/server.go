// Package server wires configuration, logging, metrics, clients, and
// the API surface into a runnable HTTP server.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/canvasmail/backend/internal/api/http"
	"github.com/canvasmail/backend/internal/api/middleware"
	apiws "github.com/canvasmail/backend/internal/api/ws"
	"github.com/canvasmail/backend/internal/clients/generation"
	"github.com/canvasmail/backend/internal/clients/marketing"
	"github.com/canvasmail/backend/internal/domain/session"
	"github.com/canvasmail/backend/internal/infrastructure/config"
	"github.com/canvasmail/backend/internal/infrastructure/logging"
	"github.com/canvasmail/backend/internal/infrastructure/monitoring"
)

// Server wraps the HTTP server and its dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	sessions *session.Manager
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// New creates a server instance from configuration
func New(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	logger.Info("initializing mailcanvas server",
		zap.String("port", cfg.Server.Port),
		zap.String("generation_url", cfg.Generation.BaseURL),
		zap.String("marketing_url", cfg.Marketing.BaseURL),
	)

	metrics := monitoring.NewMetrics()

	generator := generation.New(cfg.Generation.BaseURL, cfg.Generation.Timeout)
	persister := marketing.New(cfg.Marketing.BaseURL, cfg.Marketing.Timeout)

	sessions := session.NewManager(cfg.Editor, logger).WithMetrics(metrics)

	handlers := apihttp.NewHandlers(sessions, generator, persister, cfg.Editor, logger).WithMetrics(metrics)
	wsHandler := apiws.NewHandler(sessions, logger).WithMetrics(metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(monitoring.Middleware(metrics))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{middleware.HeaderRequestID},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws/editor/:id", wsHandler.HandleConnection)

	api := router.Group("/api")
	handlers.Register(api)

	return &Server{
		router:   router,
		sessions: sessions,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Run starts serving and blocks until the listener stops
func (s *Server) Run() error {
	addr := fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.Server.Port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("server listening", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts the server down gracefully
func (s *Server) Close() error {
	s.logger.Info("shutting down")

	if s.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.http.Shutdown(ctx); err != nil {
			return err
		}
	}

	_ = s.logger.Sync()
	return nil
}

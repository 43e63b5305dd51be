// Package server provides HTTP server lifecycle management for the admin API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/solatis/flowkeeper/internal/core/api"
	"github.com/solatis/flowkeeper/internal/core/config"
)

const shutdownTimeout = 30 * time.Second

// HTTPServer manages the admin API HTTP server lifecycle.
type HTTPServer struct {
	server   *http.Server
	engine   *gin.Engine
	mu       sync.Mutex
	listener net.Listener
	config   *config.AdminAPIConfig
	logger   *zap.Logger
}

// NewHTTPServer builds the gin engine with middleware, admin routes, /healthz and /metrics.
// gatherer may be nil, in which case /metrics is not mounted.
func NewHTTPServer(cfg *config.AdminAPIConfig, service *api.AdminService, gatherer prometheus.Gatherer, logger *zap.Logger) (*HTTPServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		Recovery(logger),
		RequestID(),
		RequestLogger(logger),
		Timeout(cfg.RequestTimeout),
	)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	service.RegisterRoutes(engine.Group("/api/v1"))
	service.RegisterLegacyRoutes(engine)

	return &HTTPServer{
		server: &http.Server{
			Handler:           engine,
			ReadHeaderTimeout: cfg.RequestTimeout,
		},
		engine: engine,
		config: cfg,
		logger: logger,
	}, nil
}

// Handler returns the gin engine.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Start binds listener and serves HTTP requests.
// Blocks until Shutdown is called; returns nil after a graceful shutdown.
func (s *HTTPServer) Start(ctx context.Context) error {
	addr := s.config.Addr()
	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("admin api listening", zap.String("addr", listener.Addr().String()))
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound address, empty before Start has bound.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully stops the server, bounded by ctx and a 30-second timeout.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.server.Close()
		return fmt.Errorf("graceful shutdown failed, forced stop: %w", err)
	}
	return nil
}

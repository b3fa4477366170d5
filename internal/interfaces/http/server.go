// Package http is the thin adapter translating HTTP requests into
// lifecycle controller and action gate calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adminchat/approvalgate/internal/approval"
	"github.com/adminchat/approvalgate/internal/connector"
	"github.com/adminchat/approvalgate/internal/gate"
	"github.com/adminchat/approvalgate/internal/infrastructure/persistence/repository"
	"github.com/adminchat/approvalgate/internal/intent"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	logger     *zap.Logger
}

// NewServer creates the HTTP server wired to the workflow components
func NewServer(
	config ServerConfig,
	controller *approval.Controller,
	actionGate *gate.Gate,
	gateway *connector.Gateway,
	classifier *intent.Classifier,
	auditRepo *repository.AuditRepository,
	logger *zap.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	server := &Server{
		config: config,
		router: router,
		logger: logger,
	}

	router.Use(gin.Recovery())
	router.Use(server.loggingMiddleware())

	handlers := NewHandlers(controller, actionGate, gateway, classifier, auditRepo, logger)

	router.GET("/health", handlers.HealthCheck)

	api := router.Group("/api/v1")
	{
		api.POST("/requests", handlers.CreateRequest)
		api.GET("/requests/pending", handlers.ListPending)
		api.GET("/requests/:id", handlers.GetRequest)
		api.GET("/requests/:id/audit", handlers.GetAuditTrail)
		api.POST("/requests/:id/approve", handlers.ApproveRequest)
		api.POST("/requests/:id/reject", handlers.RejectRequest)
		api.GET("/codes/:code/valid", handlers.ValidateShortCode)
		api.POST("/codes/:code/execute", handlers.ExecuteShortCode)
		api.POST("/intent/classify", handlers.ClassifyIntent)
	}

	return server
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// Start begins serving HTTP requests; it blocks until the server stops
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the gin engine for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Package httpapi exposes the support agent over a REST API.
//
// Endpoints:
//
//	POST /ingest   - ingest a source directory
//	POST /chat     - ask a question
//	GET  /history  - recent exchanges
//	GET  /health   - liveness and environment
//	GET  /config   - sanitised effective configuration
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ragdesk/ragdesk/internal/config"
	"github.com/ragdesk/ragdesk/internal/core/ports/driving"
	"github.com/ragdesk/ragdesk/internal/logger"
)

// Server wraps the gin engine with lifecycle management.
type Server struct {
	engine   *gin.Engine
	srv      *http.Server
	ingestor driving.Ingestor
	agent    driving.SupportAgent
	cfg      *config.Config
}

// NewServer creates the REST server and registers all routes.
func NewServer(ingestor driving.Ingestor, agent driving.SupportAgent, cfg *config.Config) *Server {
	if !logger.IsVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:   engine,
		ingestor: ingestor,
		agent:    agent,
		cfg:      cfg,
	}
	s.registerRoutes()

	return s
}

// Engine returns the underlying gin engine. Exposed for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/config", s.handleConfig)
	s.engine.POST("/ingest", s.handleIngest)
	s.engine.POST("/chat", s.handleChat)
	s.engine.GET("/history", s.handleHistory)
}

// Start runs the HTTP server until it fails or Shutdown is called.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.Info("HTTP server listening on %s", addr)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

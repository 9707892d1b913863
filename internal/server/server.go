package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/premarket/internal/models"
)

// Scheduler is the part of the scheduler the HTTP endpoints use.
type Scheduler interface {
	Status() models.ScheduleStatus
	TriggerNow(ctx context.Context) error
}

// Server serves metrics, health and a manual scan trigger in schedule mode.
type Server struct {
	router    *mux.Router
	server    *http.Server
	scheduler Scheduler
	metrics   http.Handler
	hub       *Hub
	logger    arbor.ILogger
}

// New creates a server listening on addr. metrics and hub may be nil.
func New(addr string, scheduler Scheduler, metrics http.Handler, hub *Hub, logger arbor.ILogger) *Server {
	s := &Server{
		scheduler: scheduler,
		metrics:   metrics,
		hub:       hub,
		logger:    logger,
	}

	s.router = s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.withMiddleware(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // POST /api/scan runs a full scan
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info().
		Str("address", s.server.Addr).
		Msg("HTTP server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}

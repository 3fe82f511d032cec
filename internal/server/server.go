// Package server defines the Server struct that composes the application's
// shared dependencies.
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - view renderer (and its template watcher)
//   - http.Server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/contactform/internal/config"
	"github.com/deppfellow/contactform/internal/view"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/contactform/internal/logger"
)

// Server is the application container. It is not the HTTP server itself.
type Server struct {
	Config *config.Config

	// Logger is the application's main structured logger.
	Logger *zerolog.Logger

	// LoggerService holds the New Relic application, if any.
	LoggerService *loggerPkg.LoggerService

	// Views renders the pages a submission ends on.
	Views *view.Renderer

	httpServer *http.Server
}

// New parses the views and builds the container. It does not start
// listening; see SetupHTTPServer and Start.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	views, err := view.New(cfg.Views, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load views: %w", err)
	}

	logger.Debug().
		Strs("views", views.Names()).
		Str("dir", cfg.Views.Dir).
		Bool("watch", cfg.Views.Watch).
		Msg("views loaded")

	return &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		Views:         views,
	}, nil
}

// SetupHTTPServer configures the net/http server around handler.
// Timeouts from the config are whole seconds.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start blocks serving HTTP until Shutdown is called.
//
// It requires SetupHTTPServer to be called first.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx
// expires, then stops the template watcher and flushes New Relic.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	if err := s.Views.Close(); err != nil {
		return fmt.Errorf("failed to stop template watcher: %w", err)
	}

	s.LoggerService.Shutdown()

	return nil
}

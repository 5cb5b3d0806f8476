// Package httpserver serves the operational HTTP surface of the agent:
// health probes, build version, Prometheus metrics and record counts.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"

	"github.com/tukib/snakebot/internal/domain"
)

type Server struct {
	echo  *echo.Echo
	port  string
	store domain.KVStore
	clock clockwork.Clock

	healthChecks []HealthCheck
	startTime    time.Time
}

// NewServer builds the echo instance. store backs the record count endpoint;
// the readiness probe runs healthChecks in order.
func NewServer(port string, store domain.KVStore, clock clockwork.Clock, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		port:         port,
		store:        store,
		clock:        clock,
		healthChecks: healthChecks,
	}
	srv.startTime = clock.Now()
	srv.registerRoutes()
	return srv
}

// Start blocks serving until Shutdown. A graceful shutdown is not an error.
func (s *Server) Start() error {
	slog.Info("Starting HTTP server", "port", s.port)
	if err := s.echo.Start(":" + s.port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP exposes the router for tests and embedding.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	apimiddleware "github.com/cuboulder-se-research/em-assist/infrastructure/api/middleware"
)

// DefaultWriteTimeout bounds a response when no suggestion timeout is known.
const DefaultWriteTimeout = 150 * time.Second

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithWriteTimeout sets the HTTP write timeout. A listing request may block
// for the whole suggestion timeout, so this must be longer than it.
func WithWriteTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// Server represents the HTTP API server.
type Server struct {
	router       chi.Router
	httpServer   *http.Server
	logger       *slog.Logger
	addr         string
	writeTimeout time.Duration
}

// NewServer creates a new API Server.
func NewServer(addr string, logger *slog.Logger, opts ...ServerOption) Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()

	// No chi Timeout here: listing blocks until orchestration completes and
	// MCP streams its responses.
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.NotFound(apimiddleware.NotFound)
	router.MethodNotAllowed(apimiddleware.MethodNotAllowed)

	s := Server{
		router:       router,
		addr:         addr,
		logger:       logger,
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(&s)
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Router returns the chi router for registering routes.
func (s Server) Router() chi.Router {
	return s.router
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.Serve(listener)
}

// Serve accepts connections on listener until Shutdown. A server shut down
// before Serve returns immediately.
func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info("starting HTTP server", "addr", listener.Addr().String(), "write_timeout", s.writeTimeout)
	if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the server address.
func (s Server) Addr() string {
	return s.addr
}

// WriteTimeout returns the configured write timeout.
func (s Server) WriteTimeout() time.Duration {
	return s.writeTimeout
}

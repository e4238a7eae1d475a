// Package http exposes the feed advisor as a JSON API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Server struct {
	server *http.Server
	config ServerConfig
}

type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	MaxBodyBytes   int64
	AllowedOrigins []string
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           8080,
		Timeout:        90 * time.Second,
		MaxBodyBytes:   1 << 20,
		AllowedOrigins: []string{"*"},
	}
}

// NewServer wires the API routes behind the middleware chain. Recovery runs
// first so that panics in any later layer are caught.
func NewServer(config ServerConfig, api *API) *Server {
	defaults := DefaultServerConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaults.MaxBodyBytes
	}

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      newHandler(config, api),
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout + 5*time.Second,
			IdleTimeout:  120 * time.Second,
		},
		config: config,
	}
}

func newHandler(config ServerConfig, api *API) http.Handler {
	mux := http.NewServeMux()
	api.Register(mux)

	chain := Chain(
		RecoveryMiddleware,
		LoggerMiddleware,
		SecurityHeadersMiddleware,
		CORSMiddleware(config.AllowedOrigins),
		RequestSizeMiddleware(config.MaxBodyBytes),
		TimeoutMiddleware(config.Timeout),
	)
	return chain(mux)
}

func (s *Server) Start() error {
	zap.L().Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zap.L().Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func (s *Server) Addr() string {
	return s.server.Addr
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"
)

// ServerConfig holds listener settings for the stand-in service
type ServerConfig struct {
	Host              string
	Port              int
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// DefaultServerConfig listens where the client looks by default
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:              3000,
		ReadHeaderTimeout: 15 * time.Second,
		ShutdownTimeout:   30 * time.Second,
	}
}

// Server serves the stand-in routes. There is no write timeout because
// push connections stay open for the whole session.
type Server struct {
	http   *http.Server
	logger *slog.Logger
	config ServerConfig

	// beforeShutdown runs once the context ends and before in-flight
	// requests are drained. Hijacked connections are not tracked by
	// http.Server, so their owner closes them here.
	beforeShutdown []func()
}

// NewServer creates a server for handler
func NewServer(handler http.Handler, config ServerConfig, logger *slog.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
			Handler:           handler,
			ReadHeaderTimeout: config.ReadHeaderTimeout,
		},
		logger: logger.With(slog.String("component", "stub_server")),
		config: config,
	}
}

// OnShutdown registers fn to run when Run begins shutting down
func (s *Server) OnShutdown(fn func()) {
	s.beforeShutdown = append(s.beforeShutdown, fn)
}

// Run listens on the configured address and serves until ctx ends, then
// shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}
	return s.RunListener(ctx, ln)
}

// RunListener is Run on an existing listener
func (s *Server) RunListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("serving", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	for _, fn := range s.beforeShutdown {
		fn()
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-errCh

	s.logger.Info("stopped")
	return nil
}

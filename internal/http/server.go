package router

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Server serves an http.Handler until its context is cancelled, then
// drains in-flight requests for at most ShutdownTimeout.
type Server struct {
	address         string
	handler         http.Handler
	logger          *log.Logger
	shutdownTimeout time.Duration

	ready chan struct{}
	addr  net.Addr
}

type ServerConfig struct {
	Address         string
	Handler         http.Handler
	Logger          *log.Logger
	ShutdownTimeout time.Duration
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	return &Server{
		address:         cfg.Address,
		handler:         cfg.Handler,
		logger:          cfg.Logger,
		shutdownTimeout: cfg.ShutdownTimeout,
		ready:           make(chan struct{}),
	}
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr is valid after Ready is closed.
func (s *Server) Addr() net.Addr {
	return s.addr
}

func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.address, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("listening", "address", s.addr.String())

	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shut down signal received")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	s.logger.Info("shut down gracefully")
	return nil
}

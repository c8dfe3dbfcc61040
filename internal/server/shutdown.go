package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

// shutdownTimeout bounds how long in-flight webhooks may run after a stop
// is requested.
const shutdownTimeout = 30 * time.Second

// Shutdown gracefully stops a running server. It is a no-op before Run.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	hs := s.srv
	s.mu.RUnlock()

	if hs == nil {
		return nil
	}
	return hs.Shutdown(ctx)
}

// Addr returns the bound listener address, or "" before the server starts.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// ListenAndServeWithShutdown runs the server until SIGINT or SIGTERM, then
// drains in-flight requests for up to shutdownTimeout.
func (s *Server) ListenAndServeWithShutdown() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled or Shutdown is called. The listener is
// bound before Ready is closed, so port 0 resolves to a real address.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	hs := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.srv = hs
	s.listener = listener
	s.mu.Unlock()

	served := make(chan error, 1)
	go func() {
		served <- hs.Serve(listener)
	}()

	logger.WithField("addr", listener.Addr().String()).Info("Server started")
	close(s.ready)

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.WithField("cause", context.Cause(ctx)).Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := hs.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown failed")
		return err
	}

	<-served
	logger.Info("Server shutdown complete")
	return nil
}

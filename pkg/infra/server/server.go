// Package server runs the HTTP and gRPC listeners and coordinates graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	serveropts "github.com/kart-io/medextract/pkg/options/server"
)

// Runnable is a listener the manager starts and stops.
type Runnable interface {
	Name() string
	// Start begins serving without blocking. Serve errors after a successful
	// start are reported on the channel returned by Errors.
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Errors() <-chan error
}

// Manager owns the HTTP server, the optional gRPC health server and the
// shutdown hooks that release application resources.
type Manager struct {
	opts *serveropts.Options

	mu      sync.Mutex
	started bool
	stopped bool
	servers []Runnable
	hooks   []func(context.Context) error
}

// NewManager builds the HTTP server around engine and, when enabled, the
// gRPC health server.
func NewManager(opts *serveropts.Options, engine *gin.Engine) *Manager {
	m := &Manager{opts: opts}
	m.servers = append(m.servers, NewHTTPServer(opts.HTTP, engine))
	if opts.GRPC != nil && opts.GRPC.Enabled {
		m.servers = append(m.servers, NewGRPCServer(opts.GRPC))
	}
	return m
}

// OnShutdown registers fn to run after the listeners stop. Hooks run in
// reverse registration order.
func (m *Manager) OnShutdown(fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Servers returns the managed listeners.
func (m *Manager) Servers() []Runnable {
	return m.servers
}

// Start starts all servers. On failure the ones already started are stopped.
// A manager cannot be restarted after Stop.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started || m.stopped {
		m.mu.Unlock()
		return fmt.Errorf("server manager already started")
	}
	m.started = true
	m.mu.Unlock()

	for i, s := range m.servers {
		if err := s.Start(ctx); err != nil {
			for _, prev := range m.servers[:i] {
				_ = prev.Stop(ctx)
			}
			return fmt.Errorf("failed to start %s server: %w", s.Name(), err)
		}
	}
	return nil
}

// Stop stops the listeners, then runs the shutdown hooks.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = false
	m.stopped = true
	hooks := append([]func(context.Context) error(nil), m.hooks...)
	m.mu.Unlock()

	var errs []error
	for _, s := range m.servers {
		if err := s.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s server: %w", s.Name(), err))
		}
		logger.Infow("server stopped", "name", s.Name())
	}
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run starts the servers and blocks until SIGINT/SIGTERM, ctx is done or a
// server fails, then shuts down within the configured timeout.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed := make(chan error, len(m.servers))
	for _, s := range m.servers {
		go func() {
			if err, ok := <-s.Errors(); ok && err != nil {
				failed <- fmt.Errorf("%s server: %w", s.Name(), err)
			}
		}()
	}

	var runErr error
	select {
	case <-sigCtx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-failed:
		logger.Errorw("server failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.opts.ShutdownTimeout)
	defer cancel()
	if err := m.Stop(shutdownCtx); err != nil {
		logger.Errorw("graceful shutdown incomplete", "error", err)
		return errors.Join(runErr, err)
	}
	logger.Info("server exited")
	return runErr
}

package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	httpopts "github.com/kart-io/medextract/pkg/options/server/http"
)

// HTTPServer serves a gin engine.
type HTTPServer struct {
	opts   *httpopts.Options
	server *http.Server
	addr   net.Addr
	errCh  chan error
}

var _ Runnable = (*HTTPServer)(nil)

// NewHTTPServer creates an HTTP server for engine.
func NewHTTPServer(opts *httpopts.Options, engine *gin.Engine) *HTTPServer {
	return &HTTPServer{
		opts: opts,
		server: &http.Server{
			Addr:         opts.Addr,
			Handler:      engine,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
			IdleTimeout:  opts.IdleTimeout,
		},
		errCh: make(chan error, 1),
	}
}

// Name returns "http".
func (s *HTTPServer) Name() string {
	return "http"
}

// Start binds the listener and serves in the background.
func (s *HTTPServer) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr()
	logger.Infow("HTTP server started", "addr", s.addr.String())

	go func() {
		defer close(s.errCh)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errCh <- err
		}
	}()
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *HTTPServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Errors reports a Serve failure. It is closed when Serve returns.
func (s *HTTPServer) Errors() <-chan error {
	return s.errCh
}

// Addr returns the bound address after Start.
func (s *HTTPServer) Addr() net.Addr {
	return s.addr
}

package server

import (
	"context"
	"net"

	"github.com/kart-io/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcopts "github.com/kart-io/medextract/pkg/options/server/grpc"
)

// GRPCServer exposes grpc.health.v1.Health for orchestrator probes.
type GRPCServer struct {
	opts   *grpcopts.Options
	server *grpc.Server
	health *health.Server
	addr   net.Addr
	errCh  chan error
}

var _ Runnable = (*GRPCServer)(nil)

// NewGRPCServer creates the gRPC server with the health service registered.
func NewGRPCServer(opts *grpcopts.Options) *GRPCServer {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	if opts.EnableReflection {
		reflection.Register(srv)
	}
	return &GRPCServer{opts: opts, server: srv, health: hs, errCh: make(chan error, 1)}
}

// Name returns "grpc".
func (s *GRPCServer) Name() string {
	return "grpc"
}

// Start binds the listener, marks the server SERVING and serves in the background.
func (s *GRPCServer) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr()
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	logger.Infow("gRPC server started", "addr", s.addr.String())

	go func() {
		defer close(s.errCh)
		if err := s.server.Serve(ln); err != nil {
			s.errCh <- err
		}
	}()
	return nil
}

// Stop marks the server NOT_SERVING and stops gracefully, forcing the stop
// when ctx expires first.
func (s *GRPCServer) Stop(ctx context.Context) error {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return ctx.Err()
	}
}

// Errors reports a Serve failure. It is closed when Serve returns.
func (s *GRPCServer) Errors() <-chan error {
	return s.errCh
}

// Addr returns the bound address after Start.
func (s *GRPCServer) Addr() net.Addr {
	return s.addr
}

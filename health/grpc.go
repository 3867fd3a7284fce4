package health

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported next to the
// overall ("") status.
const ServiceName = "ffplan.Planner"

// Server serves the standard gRPC health service and maps combined check
// results to SERVING or NOT_SERVING. Degraded counts as serving.
type Server struct {
	grpcServer   *grpc.Server
	healthServer *health.Server
	listener     net.Listener
	checks       []Check
}

// NewGRPCServer listens on addr and registers the health service.
// The initial status is NOT_SERVING until the first Refresh.
func NewGRPCServer(addr string, checks ...Check) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	s := &Server{
		grpcServer:   grpcServer,
		healthServer: healthServer,
		listener:     listener,
		checks:       checks,
	}
	s.set(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return s, nil
}

// Addr returns the listening address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Refresh runs the checks and publishes the combined status.
func (s *Server) Refresh(ctx context.Context) HealthStatus {
	status, _ := Run(ctx, s.checks...)
	if status.IsUnhealthy() {
		s.set(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	} else {
		s.set(grpc_health_v1.HealthCheckResponse_SERVING)
	}
	return status
}

func (s *Server) set(st grpc_health_v1.HealthCheckResponse_ServingStatus) {
	s.healthServer.SetServingStatus("", st)
	s.healthServer.SetServingStatus(ServiceName, st)
}

// Serve refreshes the status every interval and serves until ctx is
// cancelled, then stops gracefully within stopTimeout.
func (s *Server) Serve(ctx context.Context, interval, stopTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.grpcServer.Serve(s.listener); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	s.Refresh(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.healthServer.Shutdown()
			s.gracefulStop(stopTimeout)
			return nil
		case err := <-errCh:
			return err
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

func (s *Server) gracefulStop(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		s.grpcServer.Stop()
	}
}

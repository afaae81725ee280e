package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/zero-day-ai/huntgraph/health"
)

// ServiceName is the service reported through the gRPC health protocol.
const ServiceName = "huntgraph"

// GRPCHealthServer wraps a gRPC server exposing grpc.health.v1 for
// ServiceName and for the empty (overall) service.
type GRPCHealthServer struct {
	grpcServer   *grpc.Server
	healthServer *grpchealth.Server
	checks       map[string]health.Check
	logger       *slog.Logger
}

// NewGRPCHealthServer creates the gRPC server and registers the health
// service. Both services start SERVING; Refresh and Watch update them from
// checks.
func NewGRPCHealthServer(checks map[string]health.Check, logger *slog.Logger, opts ...grpc.ServerOption) *GRPCHealthServer {
	if logger == nil {
		logger = slog.Default()
	}

	grpcServer := grpc.NewServer(opts...)

	healthServer := grpchealth.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &GRPCHealthServer{
		grpcServer:   grpcServer,
		healthServer: healthServer,
		checks:       checks,
		logger:       logger,
	}
}

// GRPCServer returns the underlying gRPC server.
func (s *GRPCHealthServer) GRPCServer() *grpc.Server {
	return s.grpcServer
}

// Refresh runs the checks once and publishes the result. Unhealthy maps to
// NOT_SERVING; healthy and degraded stay SERVING.
func (s *GRPCHealthServer) Refresh(ctx context.Context) health.Report {
	report := health.Run(ctx, s.checks)

	status := grpc_health_v1.HealthCheckResponse_SERVING
	if report.Status == health.StatusUnhealthy {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.healthServer.SetServingStatus("", status)
	s.healthServer.SetServingStatus(ServiceName, status)
	return report
}

// Watch refreshes the serving status every interval until ctx is cancelled.
func (s *GRPCHealthServer) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		checkCtx, cancel := context.WithTimeout(ctx, health.DefaultTimeout)
		report := s.Refresh(checkCtx)
		cancel()
		if report.Status != health.StatusHealthy {
			s.logger.Warn("health degraded", "status", report.Status, "message", report.Message)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Serve serves on lis until ctx is cancelled, then stops gracefully.
func (s *GRPCHealthServer) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.healthServer.Shutdown()
		s.grpcServer.GracefulStop()
		return nil
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return err
	}
}

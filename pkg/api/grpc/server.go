// Package grpc serves the standard gRPC health checking protocol for the
// submodel repository.
package grpc

import (
	"context"
	"fmt"
	"net"

	"github.com/aescanero/smrepo/internal/application/health"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported for the repository
const ServiceName = "smrepo.SubmodelRepository"

// Server represents the gRPC API server
type Server struct {
	server   *grpc.Server
	listener net.Listener
	health   *grpchealth.Server
	logger   *zap.Logger
}

// Config holds gRPC server configuration
type Config struct {
	Port    int
	Monitor *health.Monitor
	Logger  *zap.Logger
}

// NewServer creates a new gRPC server listening on cfg.Port
func NewServer(cfg *Config) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}

	return NewServerWithListener(listener, cfg.Monitor, cfg.Logger), nil
}

// NewServerWithListener creates a gRPC server on an existing listener
func NewServerWithListener(listener net.Listener, monitor *health.Monitor, logger *zap.Logger) *Server {
	grpcServer := grpc.NewServer()
	healthServer := grpchealth.NewServer()

	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	s := &Server{
		server:   grpcServer,
		listener: listener,
		health:   healthServer,
		logger:   logger,
	}

	if monitor != nil {
		s.setStatus(monitor.Status())
		monitor.OnChange(s.setStatus)
	} else {
		s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	}

	return s
}

// setStatus mirrors store health into the gRPC health service
func (s *Server) setStatus(status health.Status) {
	serving := healthpb.HealthCheckResponse_NOT_SERVING
	if status.Healthy {
		serving = healthpb.HealthCheckResponse_SERVING
	}

	s.health.SetServingStatus("", serving)
	s.health.SetServingStatus(ServiceName, serving)
}

// Start starts the gRPC server
func (s *Server) Start() error {
	s.logger.Info("starting gRPC server", zap.String("addr", s.listener.Addr().String()))

	if err := s.server.Serve(s.listener); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("failed to start gRPC server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down gRPC server")
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		s.logger.Info("gRPC server shut down complete")
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return fmt.Errorf("gRPC server shutdown: %w", ctx.Err())
	}
}

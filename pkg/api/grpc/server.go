package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/aescanero/u64feed/pkg/ports"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reporting the feed session
const ServiceName = "u64feed.Session"

// StateSource reports the state of the current session
type StateSource interface {
	CurrentState() ports.SessionState
}

// Server represents the gRPC health server
type Server struct {
	server   *grpc.Server
	listener net.Listener
	health   *health.Server
	state    StateSource
	interval time.Duration
	logger   *zap.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Config holds gRPC server configuration
type Config struct {
	State  StateSource
	Logger *zap.Logger

	// PollInterval is how often the session state is copied into the health service
	PollInterval time.Duration
}

// NewServer creates a new gRPC server on listener
func NewServer(listener net.Listener, cfg *Config) *Server {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	s := &Server{
		server:   grpcServer,
		listener: listener,
		health:   healthServer,
		state:    cfg.State,
		interval: interval,
		logger:   cfg.Logger,
		stopCh:   make(chan struct{}),
	}
	s.sync()

	return s
}

// Addr returns the listener address
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Start starts the gRPC server
func (s *Server) Start() error {
	s.logger.Info("starting gRPC server", zap.String("addr", s.listener.Addr().String()))

	go s.watch()

	if err := s.server.Serve(s.listener); err != nil {
		return fmt.Errorf("failed to serve gRPC: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down gRPC server")

	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		s.server.Stop()
		<-stopped
	}

	s.logger.Info("gRPC server shut down complete")
	return nil
}

// watch copies the session state into the health service until shutdown
func (s *Server) watch() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sync()
		}
	}
}

func (s *Server) sync() {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if s.state != nil && s.state.CurrentState() == ports.SessionStateOpen {
		status = healthpb.HealthCheckResponse_SERVING
	}

	s.health.SetServingStatus(ServiceName, status)
	s.health.SetServingStatus("", status)
}

package grpcserver

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/md-rashed-zaman/dentalcare/libs/grpcx"
	"github.com/md-rashed-zaman/dentalcare/libs/runtime"
)

const ServiceName = "dentalcare.calendar.v1.CalendarService"

// Server exposes grpc.health.v1 for the calendar service. Its status mirrors
// the same dependency checks as /readyz and is refreshed periodically.
type Server struct {
	srv      *grpc.Server
	health   *health.Server
	logger   *slog.Logger
	checks   []runtime.ReadyCheck
	interval time.Duration
}

func New(logger *slog.Logger, interval time.Duration, checks ...runtime.ReadyCheck) *Server {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	srv := grpcx.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	return &Server{srv: srv, health: hs, logger: logger, checks: checks, interval: interval}
}

// Refresh runs the checks once and publishes the result.
func (s *Server) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if failures := runtime.RunChecks(ctx, s.checks...); len(failures) > 0 {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn("grpc health not serving", "failures", strings.Join(failures, "; "))
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// Serve blocks until ctx is done, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.Refresh(ctx)
	go s.watch(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("grpc server starting", "addr", lis.Addr().String())
		errCh <- s.srv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.srv.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

func (s *Server) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

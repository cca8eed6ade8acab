package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/elskow/gatehouse/internal/config"
)

// serviceName is the gRPC health service name probes ask about.
const serviceName = "gatehouse"

// Server runs the JSON API and the gRPC health listener side by side.
type Server struct {
	config     *config.AppConfig
	log        *zap.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	health     *health.Server
}

type Params struct {
	fx.In

	Config  *config.AppConfig
	Logger  *zap.Logger
	Handler http.Handler
}

func NewServer(p Params) *Server {
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	if p.Config.GRPC.EnableReflection {
		reflection.Register(grpcServer)
	}

	return &Server{
		config: p.Config,
		log:    p.Logger,
		httpServer: &http.Server{
			Addr:              net.JoinHostPort(p.Config.Server.Host, p.Config.Server.Port),
			Handler:           otelhttp.NewHandler(p.Handler, serviceName),
			ReadHeaderTimeout: p.Config.Server.ReadHeaderTimeout,
		},
		grpcServer: grpcServer,
		health:     healthServer,
	}
}

// Start binds both listeners and serves in the background. Bind errors are
// returned synchronously so a taken port fails startup.
func (s *Server) Start() error {
	httpLis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	grpcAddr := net.JoinHostPort(s.config.Server.Host, s.config.GRPC.Port)
	grpcLis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		httpLis.Close()
		return fmt.Errorf("failed to listen for grpc: %w", err)
	}

	s.log.Info("Starting HTTP server",
		zap.String("address", s.httpServer.Addr),
		zap.String("grpc_address", grpcAddr),
		zap.Object("config", serverConfigToField(s.config)),
	)

	go func() {
		if err := s.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server stopped", zap.Error(err))
		}
	}()
	go func() {
		if err := s.grpcServer.Serve(grpcLis); err != nil {
			s.log.Error("gRPC server stopped", zap.Error(err))
		}
	}()

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	return nil
}

func serverConfigToField(config *config.AppConfig) zapcore.ObjectMarshaler {
	return zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("environment", Environment())
		enc.AddBool("reflection_enabled", config.GRPC.EnableReflection)
		enc.AddDuration("request_timeout", config.Server.RequestTimeout)
		enc.AddDuration("user_token_ttl", config.Auth.UserTokenTTL)
		enc.AddDuration("admin_token_ttl", config.Auth.AdminTokenTTL)
		return nil
	})
}

// Stop flips the health status first so probes drain traffic, then shuts
// both listeners down.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down servers")
	s.health.Shutdown()

	err := s.httpServer.Shutdown(ctx)
	s.grpcServer.GracefulStop()
	return err
}

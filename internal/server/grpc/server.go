// Package grpc exposes the identity service over gRPC (JSON codec).
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// UserService is the slice of services.UserService the gRPC layer needs.
type UserService interface {
	Register(ctx context.Context, username, password string) (*models.Account, error)
	Login(ctx context.Context, username, password string) (*auth.Token, error)
	VerifyToken(ctx context.Context, token string) (*auth.Identity, error)
}

// RequestObserver records finished requests; *metrics.Collector satisfies it.
type RequestObserver interface {
	ObserveRequest(transport, route string, code int, took time.Duration)
}

type GRPCServer struct {
	address        string
	users          UserService
	logger         logging.Logger
	observer       RequestObserver
	requestTimeout time.Duration
	health         *health.Server
}

func NewGRPCServer(address string, l logging.Logger, us UserService, obs RequestObserver, requestTimeout time.Duration) *GRPCServer {
	return &GRPCServer{
		address:        address,
		logger:         l.With("module", "grpc_server"),
		users:          us,
		observer:       obs,
		requestTimeout: requestTimeout,
		health:         health.NewServer(),
	}
}

// newServer builds a grpc.Server with interceptors, AuthService and the
// standard health service registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.observeInterceptor,
		s.timeoutInterceptor,
		s.accessTokenInterceptor,
	))

	api.RegisterAuthServiceServer(srv, s)
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)

	return srv
}

// Run listens on the configured address until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}

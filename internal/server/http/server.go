// Package http exposes the identity service as a JSON API on a chi router.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// UserService is what the HTTP layer needs from services.UserService.
type UserService interface {
	Register(ctx context.Context, username, password string) (*models.Account, error)
	Login(ctx context.Context, username, password string) (*auth.Token, error)
	VerifyToken(ctx context.Context, token string) (*auth.Identity, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
	ListAccounts(ctx context.Context, skip, limit int) ([]*models.Account, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	Ping(ctx context.Context) error
}

// RequestObserver records finished requests; *metrics.Collector satisfies it.
type RequestObserver interface {
	ObserveRequest(transport, route string, code int, took time.Duration)
}

type Options struct {
	Address        string
	ServiceName    string
	Version        string
	CORSOrigins    []string
	RequestTimeout time.Duration
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	// Observer is told about every request when set.
	Observer RequestObserver
}

type HTTPServer struct {
	opts   Options
	users  UserService
	logger logging.Logger
	now    func() time.Time
}

func NewHTTPServer(opts Options, l logging.Logger, us UserService) *HTTPServer {
	return &HTTPServer{
		opts:   opts,
		users:  us,
		logger: l.With("module", "http_server"),
		now:    time.Now,
	}
}

// Run listens on the configured address until ctx is cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve handles requests on lis until ctx is cancelled, then shuts down
// gracefully.
func (s *HTTPServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

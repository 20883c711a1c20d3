package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      api.AuthServiceClient

	timeout         time.Duration
	retryMaxElapsed time.Duration
	dialOptions     []grpc.DialOption

	mu          sync.RWMutex
	accessToken string
}

type Option func(*GRPCClient)

// WithTimeout bounds every call. Zero means no extra deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *GRPCClient) { c.timeout = d }
}

// WithRetry sets how long read-only calls are retried while the server
// is unavailable. Zero disables retries.
func WithRetry(maxElapsed time.Duration) Option {
	return func(c *GRPCClient) { c.retryMaxElapsed = maxElapsed }
}

// WithDialOptions appends extra grpc.DialOption values.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *GRPCClient) { c.dialOptions = append(c.dialOptions, opts...) }
}

func NewAuthClient(endpointURL string, opts ...Option) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	for _, o := range opts {
		o(c)
	}

	dial := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, c.dialOptions...)

	conn, err := grpc.NewClient(endpointURL, dial...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = api.NewAuthServiceClient(conn)
	return c, nil
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := s.token(); token != "" {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) setToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

// Register is not retried: a lost response would turn the retry into a
// conflict.
func (s *GRPCClient) Register(ctx context.Context, username, password string) (*api.RegisterResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Register(ctx, &api.RegisterRequest{Username: username, Password: password})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

// Login stores the returned access token for later calls.
func (s *GRPCClient) Login(ctx context.Context, username, password string) (*api.LoginResponse, error) {
	var resp *api.LoginResponse
	err := s.retry(ctx, func(ctx context.Context) error {
		r, err := s.client.Login(ctx, &api.LoginRequest{Username: username, Password: password})
		if err != nil {
			return s.mapError(err)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.setToken(resp.AccessToken)
	return resp, nil
}

func (s *GRPCClient) WhoAmI(ctx context.Context) (*api.WhoAmIResponse, error) {
	if !s.LoggedIn() {
		return nil, ErrNotLoggedIn
	}

	var resp *api.WhoAmIResponse
	err := s.retry(ctx, func(ctx context.Context) error {
		r, err := s.client.WhoAmI(ctx, &api.WhoAmIRequest{})
		if err != nil {
			return s.mapError(err)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	return s.retry(ctx, func(ctx context.Context) error {
		resp, err := s.client.Ping(ctx, &api.PingRequest{})
		if err != nil {
			return s.mapError(err)
		}
		if resp.Status != "OK" {
			return ErrUnavailable
		}
		return nil
	})
}

// Logout forgets the access token. Tokens are stateless, so the server is
// not contacted.
func (s *GRPCClient) Logout() {
	s.setToken("")
}

func (s *GRPCClient) LoggedIn() bool {
	return s.token() != ""
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// retry runs op until it succeeds, fails with anything other than
// ErrUnavailable, or the retry window closes.
func (s *GRPCClient) retry(ctx context.Context, op func(context.Context) error) error {
	attempt := func() error {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()
		return op(ctx)
	}

	if s.retryMaxElapsed <= 0 {
		return attempt()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxElapsedTime = s.retryMaxElapsed

	return backoff.Retry(func() error {
		err := attempt()
		if err != nil && !errors.Is(err, ErrUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx))
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.AlreadyExists:
		return common.ErrConflict
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrValidation, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

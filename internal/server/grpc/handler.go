package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.RegisterResponse, error) {
	s.logger.Info(ctx, "Registration request", "username", req.Username)

	account, err := s.users.Register(ctx, req.Username, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}

	return &api.RegisterResponse{
		ID:       account.ID,
		Username: account.Username,
		Message:  "User registered successfully",
	}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {
	token, err := s.users.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}

	return &api.LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
	}, nil
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *api.WhoAmIRequest) (*api.WhoAmIResponse, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	return &api.WhoAmIResponse{
		UserID:    id.UserID,
		Username:  id.Username,
		ExpiresAt: id.ExpiresAt,
	}, nil
}

func (s *GRPCServer) Ping(context.Context, *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}

// toStatus maps service errors onto gRPC codes. Internal details never
// reach the caller.
func toStatus(err error) error {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Field+": "+ve.Msg)
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrConflict):
		return status.Error(codes.AlreadyExists, "Username already exists")
	case errors.Is(err, common.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "Invalid credentials")
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "invalid token")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

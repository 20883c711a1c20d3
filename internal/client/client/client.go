package client

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/api"
)

// Client is the contract the CLI depends on.
type Client interface {
	Close() error
	Register(ctx context.Context, username, password string) (*api.RegisterResponse, error)
	Login(ctx context.Context, username, password string) (*api.LoginResponse, error)
	WhoAmI(ctx context.Context) (*api.WhoAmIResponse, error)
	Ping(ctx context.Context) error
	Logout()
	LoggedIn() bool
}

var _ Client = (*GRPCClient)(nil)

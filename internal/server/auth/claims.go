// Package auth mints and verifies the signed access tokens handed out at
// login. Verification is stateless: no store is consulted.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what a token asserts. Subject carries the username.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// Identity is the verified view of a token handed to callers.
type Identity struct {
	UserID    string
	Username  string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Token is an issued access token.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Option configures an Issuer or Verifier.
type Option func(*options)

type options struct {
	now    func() time.Time
	issuer string
}

// WithNowTime replaces the clock. Tests use it to pin issue and expiry times.
func WithNowTime(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIssuer sets the iss claim written and required.
func WithIssuer(iss string) Option {
	return func(o *options) { o.issuer = iss }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

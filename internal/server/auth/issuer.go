package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// Issuer signs HS256 access tokens.
type Issuer struct {
	key  []byte
	ttl  time.Duration
	opts options
}

func NewIssuer(secretKey []byte, ttl time.Duration, opts ...Option) (*Issuer, error) {
	if len(secretKey) == 0 {
		return nil, errors.New("auth: empty signing key")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token ttl must be positive")
	}
	return &Issuer{key: secretKey, ttl: ttl, opts: buildOptions(opts)}, nil
}

// Issue mints a token for the given account, valid for the configured TTL
// starting now.
func (i *Issuer) Issue(userID, username string) (*Token, error) {
	now := i.opts.now()
	exp := now.Add(i.ttl)

	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("token id: %w", err)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    i.opts.issuer,
			ID:        id.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID: userID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return nil, fmt.Errorf("%w: sign token: %v", common.ErrInternal, err)
	}

	return &Token{
		AccessToken: signed,
		TokenType:   common.TokenKindBearer,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

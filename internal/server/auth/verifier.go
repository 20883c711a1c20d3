package auth

import (
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks tokens produced by an Issuer sharing the same key.
type Verifier struct {
	key  []byte
	opts options
}

func NewVerifier(secretKey []byte, opts ...Option) *Verifier {
	return &Verifier{key: secretKey, opts: buildOptions(opts)}
}

// Verify returns the identity asserted by token.
//
// Errors: common.ErrBadSignature, common.ErrTokenExpired (now >= exp) or
// common.ErrInvalidToken for anything else malformed. All three match
// errors.Is(err, common.ErrInvalidToken).
func (v *Verifier) Verify(token string) (*Identity, error) {
	claims := &Claims{}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.opts.now),
		jwt.WithExpirationRequired(),
	}
	if v.opts.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.opts.issuer))
	}

	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, parserOpts...)

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, common.ErrBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, common.ErrTokenExpired
	default:
		return nil, common.ErrInvalidToken
	}

	if claims.Subject == "" || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	id := &Identity{
		UserID:   claims.UserID,
		Username: claims.Subject,
		TokenID:  claims.ID,
	}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	id.ExpiresAt = claims.ExpiresAt.Time
	return id, nil
}

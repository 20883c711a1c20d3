package common

const (
	// AccessTokenHeaderName is the gRPC metadata key used to carry the
	// access token on outbound requests.
	AccessTokenHeaderName = "access_token"

	// TokenKindBearer is returned to clients alongside every issued token.
	TokenKindBearer = "bearer"
)

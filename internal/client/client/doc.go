// Package client talks to the gophauth gRPC endpoint.
//
// GRPCClient keeps the access token returned by Login and attaches it to
// every later call under the "access_token" metadata key. Calls that only
// read state are retried with exponential backoff while the server is
// unreachable.
//
// gRPC status codes are mapped onto sentinel errors so callers can use
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrNotLoggedIn,
// common.ErrConflict and common.ErrValidation.
package client

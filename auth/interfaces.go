// Package auth provides API key authentication for the kvtable HTTP surface.
package auth

import (
	"context"
	"errors"
)

// Common authentication errors
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidToken         = errors.New("invalid token")
)

// Authenticator defines the interface for client authentication
type Authenticator interface {
	// Authenticate validates a token and returns the associated client ID
	Authenticate(ctx context.Context, token string) (clientID string, err error)
}

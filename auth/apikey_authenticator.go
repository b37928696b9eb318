package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
)

// APIKeyAuthenticator implements authentication using static API keys
type APIKeyAuthenticator struct {
	validKeys []string
}

// NewAPIKeyAuthenticator creates a new API key authenticator. Empty keys are ignored.
func NewAPIKeyAuthenticator(keys []string) *APIKeyAuthenticator {
	validKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		if key = strings.TrimSpace(key); key != "" {
			validKeys = append(validKeys, key)
		}
	}

	return &APIKeyAuthenticator{
		validKeys: validKeys,
	}
}

// Enabled reports whether any key is configured
func (a *APIKeyAuthenticator) Enabled() bool {
	return len(a.validKeys) > 0
}

// Authenticate validates a bearer token and returns the client ID "apikey-N",
// N being the position of the matching key
func (a *APIKeyAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	token = strings.TrimPrefix(token, "Bearer ")
	token = strings.TrimSpace(token)

	if token == "" {
		return "", ErrInvalidToken
	}

	match := -1
	for i, key := range a.validKeys {
		if subtle.ConstantTimeCompare([]byte(token), []byte(key)) == 1 && match < 0 {
			match = i
		}
	}
	if match < 0 {
		return "", ErrAuthenticationFailed
	}

	return fmt.Sprintf("apikey-%d", match), nil
}

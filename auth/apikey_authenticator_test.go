package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyAuthenticator(t *testing.T) {
	a := NewAPIKeyAuthenticator([]string{"alpha", " ", "beta"})
	require.True(t, a.Enabled())

	tests := []struct {
		name    string
		token   string
		want    string
		wantErr error
	}{
		{name: "bearer", token: "Bearer alpha", want: "apikey-0"},
		{name: "bare", token: "beta", want: "apikey-1"},
		{name: "padded", token: "Bearer  beta ", want: "apikey-1"},
		{name: "unknown", token: "Bearer gamma", wantErr: ErrAuthenticationFailed},
		{name: "prefix of a key", token: "alph", wantErr: ErrAuthenticationFailed},
		{name: "empty", token: "Bearer ", wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Authenticate(context.Background(), tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAPIKeyAuthenticatorDisabled(t *testing.T) {
	assert.False(t, NewAPIKeyAuthenticator(nil).Enabled())
	assert.False(t, NewAPIKeyAuthenticator([]string{""}).Enabled())
}

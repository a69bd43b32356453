package mollie

import (
	"context"
	"strings"
)

// CredentialProvider hands out the API key for each outbound call.
// Implementations may fetch the key from config, a vault, or the
// environment so a rotated key takes effect without a restart.
type CredentialProvider interface {
	APIKey(ctx context.Context) (string, error)
}

// StaticCredentials serves a fixed API key.
type StaticCredentials struct {
	Key string
}

// APIKey implements CredentialProvider.
func (s StaticCredentials) APIKey(ctx context.Context) (string, error) {
	return strings.TrimSpace(s.Key), nil
}

// CredentialFunc adapts a function to the CredentialProvider interface.
type CredentialFunc func(ctx context.Context) (string, error)

// APIKey implements CredentialProvider.
func (f CredentialFunc) APIKey(ctx context.Context) (string, error) {
	return f(ctx)
}

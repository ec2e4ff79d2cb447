package auth

import (
	"context"

	"github.com/custodia-labs/entsync/internal/core/ports/driven"
)

// NullTokenProvider is used for sources that need no authentication.
type NullTokenProvider struct{}

var _ driven.TokenProvider = (*NullTokenProvider)(nil)

// NewNullTokenProvider creates a no-auth provider.
func NewNullTokenProvider() *NullTokenProvider {
	return &NullTokenProvider{}
}

// GetToken returns an empty token.
func (p *NullTokenProvider) GetToken(_ context.Context) (string, error) {
	return "", nil
}

// InvalidateToken is a no-op.
func (p *NullTokenProvider) InvalidateToken() {}

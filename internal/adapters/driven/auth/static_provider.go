package auth

import (
	"context"

	"github.com/custodia-labs/entsync/internal/core/ports/driven"
)

// StaticTokenProvider serves a fixed token supplied by the caller, for runs
// where an external system already holds a valid access token.
type StaticTokenProvider struct {
	token string
}

var _ driven.TokenProvider = (*StaticTokenProvider)(nil)

// NewStaticTokenProvider creates a provider returning the given token.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

// GetToken returns the fixed token.
func (p *StaticTokenProvider) GetToken(_ context.Context) (string, error) {
	return p.token, nil
}

// InvalidateToken is a no-op; there is nothing to refresh.
func (p *StaticTokenProvider) InvalidateToken() {}

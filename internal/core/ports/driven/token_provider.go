package driven

import (
	"context"

	"github.com/custodia-labs/entsync/internal/core/domain"
)

// TokenProvider provides access tokens for authenticated API calls.
// Implementations handle refresh transparently: callers invoke GetToken
// before every outbound call and never cache the result themselves.
//
// Concurrency contract: if N concurrent callers observe an expired token,
// exactly one refresh is issued and all callers receive its result.
type TokenProvider interface {
	// GetToken returns a valid access token.
	// Returns empty string for no-auth sources.
	GetToken(ctx context.Context) (string, error)

	// InvalidateToken drops the cached token so the next GetToken
	// refreshes. Called by connectors after an unauthorized response.
	InvalidateToken()
}

// TokenProviderFactory builds the right TokenProvider for a connection's
// auth mode: refreshing providers for OAuth connections, a static provider
// when the caller injected a token, a null provider otherwise.
type TokenProviderFactory interface {
	ForConnection(ctx context.Context, conn domain.Connection, accessToken string) (TokenProvider, error)
}

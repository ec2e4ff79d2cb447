package auth

import (
	"context"
	"fmt"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
)

// ProviderFactory builds token providers from a connection's auth mode.
type ProviderFactory struct {
	store driven.CredentialsStore
}

var _ driven.TokenProviderFactory = (*ProviderFactory)(nil)

// NewProviderFactory creates a factory backed by the given credentials
// store.
func NewProviderFactory(store driven.CredentialsStore) *ProviderFactory {
	return &ProviderFactory{store: store}
}

// ForConnection returns the token provider matching the connection's auth
// mode. A non-empty accessToken short-circuits everything: the caller has
// already done auth.
func (f *ProviderFactory) ForConnection(ctx context.Context, conn domain.Connection, accessToken string) (driven.TokenProvider, error) {
	if accessToken != "" {
		return NewStaticTokenProvider(accessToken), nil
	}

	switch conn.AuthType {
	case domain.AuthTypeNone:
		return NewNullTokenProvider(), nil

	case domain.AuthTypeAccessOnly:
		creds, err := f.store.Get(ctx, conn.CredentialsID)
		if err != nil {
			return nil, fmt.Errorf("credentials %s: %w", conn.CredentialsID, err)
		}
		if creds.OAuth == nil || creds.OAuth.AccessToken == "" {
			return nil, fmt.Errorf("connection %s: %w", conn.ID, domain.ErrAuthRequired)
		}
		return NewStaticTokenProvider(creds.OAuth.AccessToken), nil

	case domain.AuthTypeRefresh, domain.AuthTypeRefreshRotating:
		creds, err := f.store.Get(ctx, conn.CredentialsID)
		if err != nil {
			return nil, fmt.Errorf("credentials %s: %w", conn.CredentialsID, err)
		}
		return NewOAuthTokenProvider(*creds, f.store, conn.AuthType == domain.AuthTypeRefreshRotating)

	default:
		return nil, fmt.Errorf("auth type %q: %w", conn.AuthType, domain.ErrUnsupportedType)
	}
}

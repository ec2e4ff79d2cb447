package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
	"github.com/custodia-labs/entsync/internal/logger"
)

// refreshMargin is how long before expiry a cached token is treated as
// expired, so in-flight API calls don't race the deadline.
const refreshMargin = 5 * time.Minute

// OAuthTokenProvider serves access tokens for an OAuth connection,
// refreshing them against the provider's token endpoint when they near
// expiry.
//
// Concurrent callers hitting an expired token trigger exactly one refresh;
// the rest wait for its result. For providers that rotate refresh tokens,
// the new refresh token is persisted before the access token is returned
// to any caller, so a crash cannot leave callers holding a token whose
// refresh lineage was lost.
type OAuthTokenProvider struct {
	creds    domain.Credentials
	store    driven.CredentialsStore
	rotating bool
	client   *http.Client
	group    singleflight.Group

	mu     sync.RWMutex
	cached *domain.OAuthCredentials
}

var _ driven.TokenProvider = (*OAuthTokenProvider)(nil)

// NewOAuthTokenProvider creates a provider for the given credentials.
// The credentials must carry a provider config with a token URL. Set
// rotating for providers that invalidate the refresh token on each use.
func NewOAuthTokenProvider(creds domain.Credentials, store driven.CredentialsStore, rotating bool) (*OAuthTokenProvider, error) {
	if creds.OAuth == nil || creds.Provider == nil {
		return nil, fmt.Errorf("credentials %s missing oauth config: %w", creds.ID, domain.ErrInvalidInput)
	}
	if creds.Provider.TokenURL == "" {
		return nil, fmt.Errorf("credentials %s missing token url: %w", creds.ID, domain.ErrInvalidInput)
	}
	oauth := *creds.OAuth
	return &OAuthTokenProvider{
		creds:    creds,
		store:    store,
		rotating: rotating,
		client:   &http.Client{Timeout: 30 * time.Second},
		cached:   &oauth,
	}, nil
}

// GetToken returns a valid access token, refreshing if the cached one is
// expired or within the refresh margin.
func (p *OAuthTokenProvider) GetToken(ctx context.Context) (string, error) {
	p.mu.RLock()
	cached := p.cached
	p.mu.RUnlock()

	if cached != nil && cached.AccessToken != "" && !nearExpiry(cached) {
		return cached.AccessToken, nil
	}

	// Collapse concurrent refreshes into one round trip.
	token, err, _ := p.group.Do("refresh", func() (any, error) {
		// Another caller may have refreshed while we waited for the
		// singleflight slot.
		p.mu.RLock()
		current := p.cached
		p.mu.RUnlock()
		if current != nil && current.AccessToken != "" && !nearExpiry(current) {
			return current.AccessToken, nil
		}
		return p.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// InvalidateToken drops the cached token; the next GetToken refreshes.
// The cached struct is swapped, never mutated: GetToken readers hold the old
// pointer outside the lock.
func (p *OAuthTokenProvider) InvalidateToken() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != nil {
		p.cached = &domain.OAuthCredentials{
			RefreshToken: p.cached.RefreshToken,
			TokenType:    p.cached.TokenType,
		}
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// refresh exchanges the refresh token for a new access token.
func (p *OAuthTokenProvider) refresh(ctx context.Context) (string, error) {
	p.mu.RLock()
	refreshToken := ""
	if p.cached != nil {
		refreshToken = p.cached.RefreshToken
	}
	p.mu.RUnlock()

	if refreshToken == "" {
		return "", fmt.Errorf("%w: no refresh token for credentials %s", domain.ErrAuthRequired, p.creds.ID)
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {p.creds.Provider.ClientID},
		"client_secret": {p.creds.Provider.ClientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.creds.Provider.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTokenRefreshFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTokenRefreshFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", domain.ErrTokenRefreshFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %d", domain.ErrTokenRefreshFailed, resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", domain.ErrTokenRefreshFailed, err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token in response", domain.ErrTokenRefreshFailed)
	}

	updated := domain.OAuthCredentials{
		AccessToken:  tr.AccessToken,
		RefreshToken: refreshToken,
		TokenType:    tr.TokenType,
	}
	if tr.ExpiresIn > 0 {
		updated.Expiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}

	// Rotating providers invalidate the old refresh token on use. Persist
	// the replacement before handing out the access token; failing to save
	// fails the refresh.
	if tr.RefreshToken != "" && tr.RefreshToken != refreshToken {
		if p.rotating {
			updated.RefreshToken = tr.RefreshToken
			persisted := p.creds
			persisted.OAuth = &updated
			persisted.UpdatedAt = time.Now().UTC()
			if err := p.store.Save(ctx, persisted); err != nil {
				return "", fmt.Errorf("%w: persisting rotated refresh token: %v", domain.ErrTokenRefreshFailed, err)
			}
			p.creds = persisted
		} else {
			updated.RefreshToken = tr.RefreshToken
		}
	}

	p.mu.Lock()
	p.cached = &updated
	p.mu.Unlock()

	logger.Debug("refreshed access token for credentials %s", p.creds.ID)
	return updated.AccessToken, nil
}

func nearExpiry(c *domain.OAuthCredentials) bool {
	if c.Expiry.IsZero() {
		return false
	}
	return time.Now().After(c.Expiry.Add(-refreshMargin))
}

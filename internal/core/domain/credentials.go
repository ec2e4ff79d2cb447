package domain

import (
	"time"

	"github.com/google/uuid"
)

// OAuthCredentials holds OAuth2 tokens for a connection.
type OAuthCredentials struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
}

// IsExpired reports whether the access token is past its expiry.
// A zero expiry means the provider did not report one; the token is then
// assumed valid until proven otherwise.
func (c *OAuthCredentials) IsExpired() bool {
	if c.Expiry.IsZero() {
		return false
	}
	return time.Now().After(c.Expiry)
}

// OAuthProviderConfig holds the endpoints and client settings used for
// refresh exchanges with an external provider.
type OAuthProviderConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// Credentials is the secret bundle associated with one connection.
// Persisted back to the store only on rotation.
type Credentials struct {
	ID        uuid.UUID
	Name      string
	OAuth     *OAuthCredentials
	Provider  *OAuthProviderConfig
	UpdatedAt time.Time
}

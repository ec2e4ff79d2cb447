package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuthType describes how a connector authenticates.
type AuthType string

// Authentication types.
const (
	// AuthTypeNone is for local connectors (filesystem).
	AuthTypeNone AuthType = "none"

	// AuthTypeAccessOnly uses a static access token (PAT or plain OAuth2
	// without refresh).
	AuthTypeAccessOnly AuthType = "access_only"

	// AuthTypeRefresh uses OAuth2 with a long-lived refresh token.
	AuthTypeRefresh AuthType = "oauth2_refresh"

	// AuthTypeRefreshRotating is like AuthTypeRefresh but the provider
	// invalidates the previous refresh token on every exchange.
	AuthTypeRefreshRotating AuthType = "oauth2_refresh_rotating"
)

// RequiresRefresh reports whether a token provider must be constructed for
// this auth type.
func (t AuthType) RequiresRefresh() bool {
	return t == AuthTypeRefresh || t == AuthTypeRefreshRotating
}

// Connection binds a source or destination short name to its configuration
// and credentials.
type Connection struct {
	ID            uuid.UUID
	ShortName     string
	Name          string
	AuthType      AuthType
	CredentialsID uuid.UUID

	// Config holds connector-specific settings (path, repo, collection...).
	Config map[string]string

	CreatedAt time.Time
}

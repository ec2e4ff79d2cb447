// Package auth provides token providers for source connections: a
// refreshing OAuth provider, a static provider for caller-supplied tokens,
// and a null provider for unauthenticated sources.
package auth

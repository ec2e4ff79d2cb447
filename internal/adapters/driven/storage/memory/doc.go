// Package memory provides in-memory store implementations, used in tests
// and for ephemeral runs that don't need state across restarts.
package memory

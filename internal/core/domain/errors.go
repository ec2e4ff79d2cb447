package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown source, destination or
	// transformer short name.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrSyncInProgress indicates a sync job is already running for the
	// same sync configuration.
	ErrSyncInProgress = errors.New("sync in progress")

	// DAG Errors.

	// ErrDagCycle indicates the routing graph contains a cycle.
	ErrDagCycle = errors.New("dag contains a cycle")

	// ErrDagNoSource indicates the routing graph has no (or more than one)
	// source node.
	ErrDagNoSource = errors.New("dag requires exactly one source node")

	// ErrDagInvalidEdge indicates an edge references an unknown node.
	ErrDagInvalidEdge = errors.New("dag edge references unknown node")

	// ErrChainMismatch indicates adjacent transformers in a chain have
	// incompatible entity types.
	ErrChainMismatch = errors.New("transformer chain type mismatch")

	// Authentication Errors.

	// ErrAuthRequired indicates the connector requires authentication but
	// none is configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrTokenRefreshFailed indicates token refresh operation failed.
	// A run that hits this cannot authenticate and is marked failed.
	ErrTokenRefreshFailed = errors.New("token refresh failed")

	// Processing Errors.

	// ErrSkipEntity is returned by a transformer to signal the entity
	// should not continue through its chain. Counted as skipped, not failed.
	ErrSkipEntity = errors.New("skip entity")

	// ErrSourceValidation indicates source validation failed.
	// The connection is misconfigured or credentials are invalid.
	ErrSourceValidation = errors.New("source validation failed")
)

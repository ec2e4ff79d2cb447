// Package domain contains the core business entities and value objects
// for the entsync pipeline.
//
// Domain types have no dependencies on adapters or external services.
// They represent the ubiquitous language of the system:
//   - Entity: one normalized record produced by a source connector
//   - Dag: the routing graph from source through transformers to destinations
//   - Sync/SyncJob: a sync configuration and one execution of it
//   - Credentials: secrets for authenticated connectors
package domain

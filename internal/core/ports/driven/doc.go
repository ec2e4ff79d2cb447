// Package driven defines the interfaces the core depends on (driven ports
// in hexagonal terms): source and destination connectors, transformers,
// embedding models, token providers, persistence stores, and the workflow
// engine boundary.
//
// Adapters under internal/adapters/driven and internal/connectors implement
// these interfaces. The core never imports an adapter.
package driven

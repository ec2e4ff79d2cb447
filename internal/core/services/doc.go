// Package services contains the core orchestration logic of entsync: the
// DAG router, worker pool, entity processor, progress tracker, sync
// orchestrator and the factory that wires a run together.
//
// Services depend only on domain types and ports; all I/O happens behind
// driven interfaces.
package services

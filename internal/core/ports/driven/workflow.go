package driven

// WorkflowEnvironment is the boundary to the durable workflow engine that
// drives sync activities. The engine requires periodic liveness heartbeats
// and can deliver an asynchronous cancellation signal.
//
// The engine's own scheduling, retry and persistence guarantees are out of
// scope; this is only the contract the activity wrapper relies on.
type WorkflowEnvironment interface {
	// RunID returns the engine's stable, deterministic identifier for this
	// activity execution, used to deduplicate concurrent start requests.
	RunID() string

	// Heartbeat reports liveness to the engine.
	Heartbeat(details string)

	// Cancelled returns a channel that is closed when the engine requests
	// cancellation.
	Cancelled() <-chan struct{}
}

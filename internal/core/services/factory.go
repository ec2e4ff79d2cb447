package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
	"github.com/custodia-labs/entsync/internal/logger"
)

// FactoryConfig holds the long-lived dependencies a Factory assembles runs
// from.
type FactoryConfig struct {
	Sources      *SourceRegistry
	Destinations *DestinationRegistry
	Transformers *TransformerRegistry

	EntityDefinitions map[string]domain.EntityDefinition

	TokenProviders driven.TokenProviderFactory
	Embedder       driven.EmbeddingModel

	Syncs       driven.SyncStore
	Jobs        driven.JobStore
	Entities    driven.EntityStore
	Connections driven.ConnectionStore

	// MaxWorkers bounds per-run concurrency. Non-positive means
	// DefaultMaxWorkers.
	MaxWorkers int
}

// Factory assembles a fresh Context and Orchestrator for each run.
//
// Every referenced resource is resolved eagerly so a run fails before any
// entity moves, with a typed error naming the missing piece. Auth setup is
// conditional: only connections whose auth mode requires refresh get a
// refreshing token provider.
type Factory struct {
	cfg FactoryConfig
}

// NewFactory creates a factory.
func NewFactory(cfg FactoryConfig) *Factory {
	return &Factory{cfg: cfg}
}

// Create resolves the run's resources, validates the DAG, and assembles an
// orchestrator ready to Run.
//
// A full sync with another job still pending or in progress for the same
// sync fails fast with domain.ErrSyncInProgress, before the job is marked
// started.
func (f *Factory) Create(ctx context.Context, params domain.RunParams, dag *domain.Dag) (*Orchestrator, error) {
	sync, err := f.cfg.Syncs.Get(ctx, params.SyncID)
	if err != nil {
		return nil, fmt.Errorf("sync %s: %w", params.SyncID, err)
	}

	job, err := f.cfg.Jobs.Get(ctx, params.JobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", params.JobID, err)
	}
	job.Type = params.Type

	if params.Type == domain.SyncTypeFull {
		if err := f.guardFullSync(ctx, sync.ID, job.ID); err != nil {
			return nil, err
		}
	}

	conn, err := f.cfg.Connections.Get(ctx, sync.SourceConnectionID)
	if err != nil {
		return nil, fmt.Errorf("connection %s: %w", sync.SourceConnectionID, err)
	}

	tokens, err := f.cfg.TokenProviders.ForConnection(ctx, *conn, params.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("token provider for %s: %w", conn.ShortName, err)
	}

	source, err := f.cfg.Sources.Build(*conn, tokens)
	if err != nil {
		return nil, err
	}

	destinations, err := f.buildDestinations(dag)
	if err != nil {
		closeQuietly(source, destinations)
		return nil, err
	}

	router, err := NewRouter(dag, f.cfg.Transformers.Definitions())
	if err != nil {
		closeQuietly(source, destinations)
		return nil, err
	}

	log := logger.ForRun(sync.ID.String(), job.ID.String())
	for _, node := range router.Unreachable() {
		log.Warn("dag node %q (%s) is unreachable and routes nowhere", node.Name, node.Type)
	}
	for _, name := range f.undefinedEntityTypes(dag) {
		log.Warn("entity type %q has no registered definition", name)
	}

	sc := &Context{
		Sync:              *sync,
		Job:               *job,
		Dag:               dag,
		Source:            source,
		Destinations:      destinations,
		Embedder:          f.cfg.Embedder,
		Transformers:      f.cfg.Transformers,
		EntityDefinitions: f.cfg.EntityDefinitions,
		Router:            router,
		Progress:          NewProgress(),
		Log:               log,
	}
	pool := NewWorkerPool(f.cfg.MaxWorkers)

	return NewOrchestrator(sc, pool, f.cfg.Jobs, f.cfg.Entities), nil
}

// Validate checks a sync can run without moving any entities: the
// connection resolves, the source accepts its credentials, and the DAG
// routes cleanly.
func (f *Factory) Validate(ctx context.Context, syncID uuid.UUID, dag *domain.Dag) error {
	sync, err := f.cfg.Syncs.Get(ctx, syncID)
	if err != nil {
		return fmt.Errorf("sync %s: %w", syncID, err)
	}
	conn, err := f.cfg.Connections.Get(ctx, sync.SourceConnectionID)
	if err != nil {
		return fmt.Errorf("connection %s: %w", sync.SourceConnectionID, err)
	}

	tokens, err := f.cfg.TokenProviders.ForConnection(ctx, *conn, "")
	if err != nil {
		return fmt.Errorf("token provider for %s: %w", conn.ShortName, err)
	}
	source, err := f.cfg.Sources.Build(*conn, tokens)
	if err != nil {
		return err
	}
	defer closeQuietly(source, nil)

	if err := source.Validate(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSourceValidation, err)
	}

	router, err := NewRouter(dag, f.cfg.Transformers.Definitions())
	if err != nil {
		return err
	}
	for _, node := range router.Unreachable() {
		logger.Warn("dag node %q (%s) is unreachable and routes nowhere", node.Name, node.Type)
	}
	for _, name := range f.undefinedEntityTypes(dag) {
		logger.Warn("entity type %q has no registered definition", name)
	}
	return nil
}

// undefinedEntityTypes lists entity nodes whose type tag has no registered
// definition. Routing still works without one; the warning catches typos in
// hand-written DAGs. An empty definition catalog disables the check.
func (f *Factory) undefinedEntityTypes(dag *domain.Dag) []string {
	if len(f.cfg.EntityDefinitions) == 0 {
		return nil
	}
	var missing []string
	for _, node := range dag.Nodes {
		if node.Type != domain.NodeTypeEntity {
			continue
		}
		if _, ok := f.cfg.EntityDefinitions[node.Name]; !ok {
			missing = append(missing, node.Name)
		}
	}
	return missing
}

// guardFullSync rejects a full sync while another job for the same sync is
// pending or running. Two concurrent full syncs would each see the other's
// entities as orphans.
func (f *Factory) guardFullSync(ctx context.Context, syncID, jobID uuid.UUID) error {
	running, err := f.cfg.Jobs.ListRunning(ctx, syncID)
	if err != nil {
		return fmt.Errorf("list running jobs: %w", err)
	}
	for _, other := range running {
		if other.ID != jobID {
			return fmt.Errorf("job %s is %s: %w", other.ID, other.Status, domain.ErrSyncInProgress)
		}
	}
	return nil
}

// buildDestinations instantiates one destination per destination node, keyed
// by node ID.
func (f *Factory) buildDestinations(dag *domain.Dag) (map[uuid.UUID]driven.Destination, error) {
	destinations := make(map[uuid.UUID]driven.Destination)
	for _, node := range dag.Nodes {
		if node.Type != domain.NodeTypeDestination {
			continue
		}
		dest, err := f.cfg.Destinations.Build(node.Name)
		if err != nil {
			closeQuietly(nil, destinations)
			return nil, err
		}
		destinations[node.ID] = dest
	}
	if len(destinations) == 0 {
		return nil, fmt.Errorf("dag %q has no destination nodes: %w", dag.Name, domain.ErrInvalidInput)
	}
	return destinations, nil
}

func closeQuietly(source driven.Source, destinations map[uuid.UUID]driven.Destination) {
	if source != nil {
		if err := source.Close(); err != nil {
			logger.Debug("closing source: %v", err)
		}
	}
	for _, dest := range destinations {
		if err := dest.Close(); err != nil {
			logger.Debug("closing destination: %v", err)
		}
	}
}

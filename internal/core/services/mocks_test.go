package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
	"github.com/custodia-labs/entsync/internal/logger"
)

// mockSource streams a fixed entity list, then optionally a stream error.
type mockSource struct {
	entities    []domain.Entity
	streamErr   error
	validateErr error

	mu     sync.Mutex
	closed bool
}

func (s *mockSource) ShortName() string { return "mock" }

func (s *mockSource) Validate(_ context.Context) error { return s.validateErr }

func (s *mockSource) Generate(ctx context.Context) (<-chan domain.Entity, <-chan error) {
	entities := make(chan domain.Entity)
	errs := make(chan error, 1)
	go func() {
		defer close(entities)
		defer close(errs)
		for _, e := range s.entities {
			select {
			case entities <- e:
			case <-ctx.Done():
				return
			}
		}
		if s.streamErr != nil {
			errs <- s.streamErr
		}
	}()
	return entities, errs
}

func (s *mockSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// mockDestination records writes and deletions.
type mockDestination struct {
	mu        sync.Mutex
	inserted  map[string]domain.Entity
	deleted   []string
	insertErr error
	deleteErr error
	failID    string
}

func newMockDestination() *mockDestination {
	return &mockDestination{inserted: make(map[string]domain.Entity)}
}

func (d *mockDestination) ShortName() string { return "mockdest" }

func (d *mockDestination) BulkInsert(_ context.Context, entities []domain.Entity) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.insertErr != nil {
		return d.insertErr
	}
	for _, e := range entities {
		if d.failID != "" && e.ID == d.failID {
			return fmt.Errorf("refusing entity %s", e.ID)
		}
		d.inserted[e.ID] = e
	}
	return nil
}

func (d *mockDestination) Delete(_ context.Context, entityID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.deleteErr != nil {
		return d.deleteErr
	}
	d.deleted = append(d.deleted, entityID)
	delete(d.inserted, entityID)
	return nil
}

func (d *mockDestination) Close() error { return nil }

func (d *mockDestination) has(entityID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.inserted[entityID]
	return ok
}

func (d *mockDestination) get(entityID string) (domain.Entity, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.inserted[entityID]
	return e, ok
}

func (d *mockDestination) insertCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inserted)
}

func (d *mockDestination) deletions() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.deleted...)
}

// mockTransformer applies fn under a declared definition.
type mockTransformer struct {
	def domain.TransformerDefinition
	fn  func(domain.Entity) (*domain.Entity, error)
}

func (t *mockTransformer) Definition() domain.TransformerDefinition { return t.def }

func (t *mockTransformer) Transform(_ context.Context, e domain.Entity) (*domain.Entity, error) {
	if t.fn == nil {
		out := e
		out.Type = t.def.Produces
		return &out, nil
	}
	return t.fn(e)
}

// mockEmbedder returns fixed-size vectors.
type mockEmbedder struct {
	mu      sync.Mutex
	batches int
	fail    bool
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, fmt.Errorf("embedding unavailable")
	}
	m.batches++
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(len(texts[i])), 0.5}
	}
	return vectors, nil
}

func (m *mockEmbedder) Dimensions() int   { return 2 }
func (m *mockEmbedder) ModelName() string { return "mock-embedder" }

// mockEntityStore is a map-backed EntityStore.
type mockEntityStore struct {
	mu      sync.Mutex
	records map[string]domain.EntityRecord
	getErr  error
	saveErr error
}

func newMockEntityStore() *mockEntityStore {
	return &mockEntityStore{records: make(map[string]domain.EntityRecord)}
}

func entityKey(syncID uuid.UUID, entityID string) string {
	return syncID.String() + "/" + entityID
}

func (s *mockEntityStore) Get(_ context.Context, syncID uuid.UUID, entityID string) (*domain.EntityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	record, ok := s.records[entityKey(syncID, entityID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}

func (s *mockEntityStore) Save(_ context.Context, record domain.EntityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.records[record.SyncID+"/"+record.EntityID] = record
	return nil
}

func (s *mockEntityStore) Delete(_ context.Context, syncID uuid.UUID, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, entityKey(syncID, entityID))
	return nil
}

func (s *mockEntityStore) ListIDs(_ context.Context, syncID uuid.UUID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := syncID.String() + "/"
	var ids []string
	for key := range s.records {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			ids = append(ids, key[len(prefix):])
		}
	}
	return ids, nil
}

// mockJobStore records status transitions.
type mockJobStore struct {
	mu       sync.Mutex
	jobs     map[uuid.UUID]domain.SyncJob
	statuses []domain.JobStatus
}

func newMockJobStore() *mockJobStore {
	return &mockJobStore{jobs: make(map[uuid.UUID]domain.SyncJob)}
}

func (s *mockJobStore) Create(_ context.Context, job domain.SyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *mockJobStore) Get(_ context.Context, id uuid.UUID) (*domain.SyncJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &job, nil
}

func (s *mockJobStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.JobStatus, stats domain.SyncStats, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	job.Status = status
	job.Stats = stats
	job.Error = errMsg
	s.jobs[id] = job
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *mockJobStore) ListRunning(_ context.Context, syncID uuid.UUID) ([]domain.SyncJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var running []domain.SyncJob
	for _, job := range s.jobs {
		if job.SyncID == syncID && !job.Status.Terminal() {
			running = append(running, job)
		}
	}
	return running, nil
}

func (s *mockJobStore) status(id uuid.UUID) domain.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id].Status
}

// directDag builds source -> entity(entityType) -> destination.
func directDag(entityType string) (*domain.Dag, uuid.UUID) {
	source := domain.Node{ID: uuid.New(), Type: domain.NodeTypeSource, Name: "mock"}
	entity := domain.Node{ID: uuid.New(), Type: domain.NodeTypeEntity, Name: entityType}
	dest := domain.Node{ID: uuid.New(), Type: domain.NodeTypeDestination, Name: "mockdest"}
	dag := &domain.Dag{
		ID:    uuid.New(),
		Name:  "direct",
		Nodes: []domain.Node{source, entity, dest},
		Edges: []domain.Edge{
			{FromNodeID: source.ID, ToNodeID: entity.ID},
			{FromNodeID: entity.ID, ToNodeID: dest.ID},
		},
	}
	return dag, dest.ID
}

// newTestContext wires a context with one destination and no transformers.
func newTestContext(dag *domain.Dag, destNodeID uuid.UUID, dest driven.Destination) (*Context, error) {
	transformers := NewTransformerRegistry()
	router, err := NewRouter(dag, transformers.Definitions())
	if err != nil {
		return nil, err
	}
	return newChainTestContext(dag, destNodeID, dest, transformers, router), nil
}

// newChainTestContext wires a context from a caller-built transformer
// registry and router, for dags that contain transformer nodes.
func newChainTestContext(
	dag *domain.Dag,
	destNodeID uuid.UUID,
	dest driven.Destination,
	transformers *TransformerRegistry,
	router *Router,
) *Context {
	syncID := uuid.New()
	jobID := uuid.New()
	return &Context{
		Sync:         domain.Sync{ID: syncID, Name: "test"},
		Job:          domain.SyncJob{ID: jobID, SyncID: syncID, Type: domain.SyncTypeIncremental},
		Dag:          dag,
		Destinations: map[uuid.UUID]driven.Destination{destNodeID: dest},
		Transformers: transformers,
		Router:       router,
		Progress:     NewProgress(),
		Log:          logger.ForRun(syncID.String(), jobID.String()),
	}
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
)

// EntityStore is the SQLite-backed EntityStore.
type EntityStore struct {
	db *sql.DB
}

var _ driven.EntityStore = (*EntityStore)(nil)

// Get retrieves the record for (syncID, entityID).
func (s *EntityStore) Get(ctx context.Context, syncID uuid.UUID, entityID string) (*domain.EntityRecord, error) {
	record := domain.EntityRecord{SyncID: syncID.String(), EntityID: entityID}
	err := s.db.QueryRowContext(ctx, `
		SELECT hash, updated_at FROM entity_records WHERE sync_id = ? AND entity_id = ?`,
		syncID.String(), entityID,
	).Scan(&record.Hash, &record.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entity %s in sync %s: %w", entityID, syncID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query entity record: %w", err)
	}
	return &record, nil
}

// Save stores or updates a record.
func (s *EntityStore) Save(ctx context.Context, record domain.EntityRecord) error {
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entity_records (sync_id, entity_id, hash, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (sync_id, entity_id) DO UPDATE SET hash = excluded.hash, updated_at = excluded.updated_at`,
		record.SyncID, record.EntityID, record.Hash, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save entity record: %w", err)
	}
	return nil
}

// Delete removes a record. Missing records are not an error.
func (s *EntityStore) Delete(ctx context.Context, syncID uuid.UUID, entityID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM entity_records WHERE sync_id = ? AND entity_id = ?`,
		syncID.String(), entityID,
	)
	if err != nil {
		return fmt.Errorf("delete entity record: %w", err)
	}
	return nil
}

// ListIDs returns all entity IDs recorded for a sync.
func (s *EntityStore) ListIDs(ctx context.Context, syncID uuid.UUID) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_id FROM entity_records WHERE sync_id = ?`, syncID.String())
	if err != nil {
		return nil, fmt.Errorf("query entity ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan entity id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

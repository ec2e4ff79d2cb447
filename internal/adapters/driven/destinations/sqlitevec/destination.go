// Package sqlitevec persists synced entities, including their embedding
// vectors, in a local SQLite database.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/core/ports/driven"
)

// ShortName identifies this destination in DAG nodes.
const ShortName = "sqlitevec"

// Destination writes entities to a SQLite table, vectors stored as
// little-endian float32 blobs.
type Destination struct {
	db *sql.DB
}

var _ driven.Destination = (*Destination)(nil)

// Open creates or opens the destination database at path.
func Open(path string) (*Destination, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open destination database: %w", err)
	}
	db.SetMaxOpenConns(1)

	const schema = `
CREATE TABLE IF NOT EXISTS entities (
	id      TEXT PRIMARY KEY,
	type    TEXT NOT NULL,
	name    TEXT NOT NULL,
	content TEXT NOT NULL,
	fields  TEXT NOT NULL DEFAULT '{}',
	vector  BLOB
);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Destination{db: db}, nil
}

// ShortName returns the destination type identifier.
func (d *Destination) ShortName() string {
	return ShortName
}

// BulkInsert upserts the batch in one transaction.
func (d *Destination) BulkInsert(ctx context.Context, entities []domain.Entity) error {
	if len(entities) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entities (id, type, name, content, fields, vector)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			type = excluded.type, name = excluded.name, content = excluded.content,
			fields = excluded.fields, vector = excluded.vector`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entities {
		fields, err := json.Marshal(e.Fields)
		if err != nil {
			return fmt.Errorf("encode fields for %s: %w", e.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.Type, e.Name, e.Content, string(fields), encodeVector(e.Vector)); err != nil {
			return fmt.Errorf("insert %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// Delete removes an entity. Missing entities are not an error.
func (d *Destination) Delete(ctx context.Context, entityID string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, entityID); err != nil {
		return fmt.Errorf("delete %s: %w", entityID, err)
	}
	return nil
}

// Close closes the underlying database.
func (d *Destination) Close() error {
	return d.db.Close()
}

// Count returns the number of stored entities, used by tests and status
// reporting.
func (d *Destination) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entities: %w", err)
	}
	return n, nil
}

func encodeVector(vec []float32) []byte {
	if vec == nil {
		return nil
	}
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

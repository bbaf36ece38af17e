package global

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteBacking is the embedded-friendly alternative to PostgresBacking:
// same VectorBacking contract, a single file instead of a server to run.
// Selected via MNEMO_GLOBAL_BACKING=sqlite. Vectors are stored as JSON
// arrays rather than a native vector column — modernc.org/sqlite carries
// no pgvector-equivalent extension, and GlobalLayer never queries this
// backing for similarity, only persists to it, so plain JSON is enough.
type SQLiteBacking struct {
	db *sql.DB
}

// NewSQLiteBacking opens (or creates) the database file at path and
// ensures the embeddings table exists.
func NewSQLiteBacking(ctx context.Context, path string) (*SQLiteBacking, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS global_embeddings (
			item_id TEXT PRIMARY KEY,
			embedding TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
	`); err != nil {
		return nil, fmt.Errorf("ensure embeddings schema: %w", err)
	}
	return &SQLiteBacking{db: db}, nil
}

func (s *SQLiteBacking) StoreEmbedding(ctx context.Context, itemID string, vec []float64) error {
	raw, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("encode embedding for %s: %w", itemID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO global_embeddings (item_id, embedding, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(item_id) DO UPDATE SET embedding = excluded.embedding, updated_at = excluded.updated_at
	`, itemID, string(raw))
	if err != nil {
		return fmt.Errorf("store embedding for %s: %w", itemID, err)
	}
	return nil
}

func (s *SQLiteBacking) DeleteEmbedding(ctx context.Context, itemID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM global_embeddings WHERE item_id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("delete embedding for %s: %w", itemID, err)
	}
	return nil
}

func (s *SQLiteBacking) Close() error { return s.db.Close() }

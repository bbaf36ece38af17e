package global

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PostgresBacking is an optional durable VectorBacking for GlobalLayer,
// selected via MNEMO_GLOBAL_BACKING=postgres. It is a durability option,
// not a query surface: GlobalLayer never queries it for similarity, only
// writes/deletes to it so embeddings survive a restart independent of
// the in-process snapshot file.
type PostgresBacking struct {
	db *sql.DB
}

// NewPostgresBacking opens dsn and ensures the embeddings table exists.
func NewPostgresBacking(ctx context.Context, dsn string) (*PostgresBacking, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS global_embeddings (
			item_id TEXT PRIMARY KEY,
			embedding vector(100) NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`); err != nil {
		return nil, fmt.Errorf("ensure embeddings schema: %w", err)
	}
	return &PostgresBacking{db: db}, nil
}

func (p *PostgresBacking) StoreEmbedding(ctx context.Context, itemID string, vec []float64) error {
	f32 := make([]float32, len(vec))
	for i, v := range vec {
		f32[i] = float32(v)
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO global_embeddings (item_id, embedding, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (item_id) DO UPDATE SET embedding = EXCLUDED.embedding, updated_at = now()
	`, itemID, pgvector.NewVector(f32))
	if err != nil {
		return fmt.Errorf("store embedding for %s: %w", itemID, err)
	}
	return nil
}

func (p *PostgresBacking) DeleteEmbedding(ctx context.Context, itemID string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM global_embeddings WHERE item_id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete embedding for %s: %w", itemID, err)
	}
	return nil
}

func (p *PostgresBacking) Close() error { return p.db.Close() }

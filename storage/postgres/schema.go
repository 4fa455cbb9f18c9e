package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// schemaStatements returns the DDL for the chunk table.
// A dimensions value of zero leaves the vector column unconstrained.
func schemaStatements(dimensions int) []string {
	vectorType := "vector"
	if dimensions > 0 {
		vectorType = fmt.Sprintf("vector(%d)", dimensions)
	}

	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS paper_chunks (
	id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	figure_id text NOT NULL,
	author text NOT NULL,
	paper_title text NOT NULL,
	content text NOT NULL,
	embedding %s NOT NULL,
	chunk_index integer NOT NULL,
	position_id text NOT NULL DEFAULT '',
	domain text NOT NULL DEFAULT '',
	philosophical_engagements jsonb,
	source_work text NOT NULL DEFAULT '',
	significance text NOT NULL DEFAULT '',
	content_hash text NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
)`, vectorType),
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + positionIndexName + ` ON paper_chunks (figure_id, paper_title, chunk_index)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + identityIndexName + ` ON paper_chunks (figure_id, content_hash)`,
		`CREATE INDEX IF NOT EXISTS paper_chunks_figure_idx ON paper_chunks (figure_id, chunk_index)`,
	}
}

// Migrate creates the pgvector extension, the paper_chunks table and its indexes.
// It is safe to run repeatedly.
func Migrate(ctx context.Context, dsn string, dimensions int) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close(ctx)

	return migrate(ctx, conn, dimensions)
}

func migrate(ctx context.Context, db execer, dimensions int) error {
	if dimensions < 0 {
		return fmt.Errorf("invalid vector dimensions: %d", dimensions)
	}
	for _, stmt := range schemaStatements(dimensions) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Package postgres implements the summary store driver on PostgreSQL with
// the pgvector extension. This is the production backend.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

// DB holds the shared database handle. One DB is opened at process start and
// reused by every request.
type DB struct {
	db *sql.DB

	// dimensions is the width of the embedding column, fixed at
	// provisioning time.
	dimensions int
}

// NewDB opens a connection pool for the given DSN.
func NewDB(dsn string, dimensions int) (*DB, error) {
	if dsn == "" {
		return nil, errors.New("dsn required")
	}
	if dimensions <= 0 {
		return nil, errors.Errorf("invalid embedding dimensions %d", dimensions)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	return &DB{db: db, dimensions: dimensions}, nil
}

// Migrate provisions the schema. Schema evolution happens here, once, not in
// per-call property unions: the record layout is a fixed versioned struct.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS tenant (
			name TEXT PRIMARY KEY,
			created_ts TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS summary (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant TEXT NOT NULL REFERENCES tenant (name) ON DELETE CASCADE,
			summary TEXT NOT NULL,
			turn INTEGER,
			type TEXT,
			merged_summary JSONB,
			embedding vector(%d) NOT NULL,
			created_ts TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_ts TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, d.dimensions),
		`CREATE INDEX IF NOT EXISTS idx_summary_tenant_updated ON summary (tenant, updated_ts DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_summary_fts ON summary USING GIN (to_tsvector('simple', summary))`,
		`CREATE INDEX IF NOT EXISTS idx_summary_embedding ON summary USING hnsw (embedding vector_cosine_ops)`,
	}

	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "migration failed: %s", firstLine(stmt))
		}
	}
	return nil
}

func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DB) Close() error {
	return d.db.Close()
}

// placeholder returns the n-th positional parameter, e.g. $3.
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// placeholders returns "$1, $2, ..., $n".
func placeholders(n int) string {
	list := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		list = append(list, placeholder(i))
	}
	return strings.Join(list, ", ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

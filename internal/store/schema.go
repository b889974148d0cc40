package store

import (
	"context"
	"fmt"
)

// Timestamps are Unix nanoseconds in both dialects. At most one counted
// result may exist per claim and source; duplicates are kept uncounted.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS claims (
		id TEXT PRIMARY KEY,
		reporter_id TEXT NOT NULL DEFAULT '',
		hazard_type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		status TEXT NOT NULL,
		confidence_score REAL NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		finalized_at INTEGER,
		dispatch_attempts INTEGER NOT NULL DEFAULT 0,
		last_dispatch_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS claims_pending_idx ON claims (finalized_at, last_dispatch_at)`,
	`CREATE TABLE IF NOT EXISTS verification_results (
		id TEXT PRIMARY KEY,
		claim_id TEXT NOT NULL REFERENCES claims (id),
		source TEXT NOT NULL,
		payload TEXT NOT NULL,
		counted INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS verification_results_claim_idx ON verification_results (claim_id, created_at)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS verification_results_counted_idx ON verification_results (claim_id, source) WHERE counted = 1`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS claims (
		id TEXT PRIMARY KEY,
		reporter_id TEXT NOT NULL DEFAULT '',
		hazard_type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL,
		confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL,
		finalized_at BIGINT,
		dispatch_attempts INTEGER NOT NULL DEFAULT 0,
		last_dispatch_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS claims_pending_idx ON claims (finalized_at, last_dispatch_at)`,
	`CREATE TABLE IF NOT EXISTS verification_results (
		id TEXT PRIMARY KEY,
		claim_id TEXT NOT NULL REFERENCES claims (id),
		source TEXT NOT NULL,
		payload JSONB NOT NULL,
		counted SMALLINT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS verification_results_claim_idx ON verification_results (claim_id, created_at)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS verification_results_counted_idx ON verification_results (claim_id, source) WHERE counted = 1`,
}

// Migrate creates the tables and indexes if they do not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	schema := sqliteSchema
	if s.dialect == dialectPostgres {
		schema = postgresSchema
	}
	for i, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}

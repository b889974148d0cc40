package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// NewSQLite wraps a modernc.org/sqlite handle and migrates it. The pool is
// capped at one connection, which serializes every WithClaim transaction.
func NewSQLite(ctx context.Context, db *sql.DB) (*SQLStore, error) {
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	s := &SQLStore{db: db, dialect: dialectSQLite}
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

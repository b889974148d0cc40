package store

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// NewPostgres wraps a lib/pq handle. Call Migrate before first use; it is
// left to the caller so that tests against sqlmock can skip it.
func NewPostgres(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, dialect: dialectPostgres}
}

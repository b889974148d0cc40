package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Supported values for the driver argument of Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to dsn with the named driver and migrates the schema.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	var s *SQLStore
	switch driver {
	case DriverSQLite:
		s, err = NewSQLite(ctx, db)
	case DriverPostgres:
		s = NewPostgres(db)
		if err = s.Ping(ctx); err == nil {
			err = s.Migrate(ctx)
		}
	default:
		err = fmt.Errorf("unsupported store driver %q", driver)
	}
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

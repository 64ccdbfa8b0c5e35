package kv

import (
	"context"
	"fmt"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the backend named by driver. For sqlite, target is a file
// path; for postgres, a connection string. Memory ignores target.
func Open(ctx context.Context, driver, target string) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemStore(), nil
	case DriverSQLite:
		return OpenSQLite(ctx, target)
	case DriverPostgres:
		return OpenPostgres(ctx, target)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

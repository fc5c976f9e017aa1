package content

import (
	"context"
	"fmt"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects the backend named by driver. dsn is a file path for SQLite
// and a connection string for PostgreSQL.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return OpenSQLite(dsn)
	case DriverPostgres:
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("content: unknown driver %q", driver)
	}
}

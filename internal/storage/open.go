package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Open dispatches to the opener for driver. For sqlite the dsn is a file path.
func Open(ctx context.Context, driver, dsn, tablePrefix string, timeout time.Duration) (*sql.DB, error) {
	switch driver {
	case DriverMySQL:
		return OpenMySQL(ctx, dsn, timeout)
	case DriverSQLite:
		return OpenSQLite(ctx, dsn, tablePrefix)
	default:
		return nil, fmt.Errorf("unsupported registry driver %q", driver)
	}
}

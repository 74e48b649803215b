package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// OpenMySQL opens a read connection to a live Magento database. connectTimeout bounds
// dialing and each read; zero keeps the DSN's own settings.
func OpenMySQL(ctx context.Context, dsn string, connectTimeout time.Duration) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("mysql dsn is empty")
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	if connectTimeout > 0 {
		if cfg.Timeout == 0 {
			cfg.Timeout = connectTimeout
		}
		if cfg.ReadTimeout == 0 {
			cfg.ReadTimeout = connectTimeout
		}
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql %s@%s: %w", cfg.User, cfg.Addr, err)
	}
	return db, nil
}

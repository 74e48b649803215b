package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (and creates if needed) a registry snapshot at path and ensures the
// registry tables exist.
func OpenSQLite(ctx context.Context, path, tablePrefix string) (*sql.DB, error) {
	db, err := OpenSQLiteFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := BootstrapSQLite(ctx, db, tablePrefix); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenSQLiteFile opens (and creates if needed) a sqlite database at path without
// creating any tables.
func OpenSQLiteFile(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Basic health check + apply a few safe pragmas.
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign_keys: %w", err)
	}
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	return db, nil
}

// BootstrapSQLite creates the subset of the Magento schema the registry reads, when
// missing.
func BootstrapSQLite(ctx context.Context, db *sql.DB, tablePrefix string) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %stheme (
  theme_id    INTEGER PRIMARY KEY,
  parent_id   INTEGER,
  theme_path  TEXT,
  theme_title TEXT NOT NULL DEFAULT '',
  area        TEXT NOT NULL,
  is_featured INTEGER NOT NULL DEFAULT 0,
  type        INTEGER NOT NULL DEFAULT 0,
  code        TEXT
);`, tablePrefix),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %score_config_data (
  config_id  INTEGER PRIMARY KEY AUTOINCREMENT,
  scope      TEXT NOT NULL DEFAULT 'default',
  scope_id   INTEGER NOT NULL DEFAULT 0,
  path       TEXT NOT NULL DEFAULT 'general',
  value      TEXT,
  updated_at TEXT
);`, tablePrefix),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %sadmin_user (
  user_id          INTEGER PRIMARY KEY AUTOINCREMENT,
  username         TEXT,
  is_active        INTEGER NOT NULL DEFAULT 1,
  interface_locale TEXT NOT NULL DEFAULT 'en_US'
);`, tablePrefix),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %stheme_path_idx ON %stheme(theme_path);`, tablePrefix, tablePrefix),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %score_config_data_path_idx ON %score_config_data(path);`, tablePrefix, tablePrefix),
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap sqlite: %w", err)
		}
	}
	return nil
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverSQLite3 = "sqlite3" // mattn/go-sqlite3, cgo
	DriverSQLite  = "sqlite"  // modernc.org/sqlite, pure Go
)

// OpenDriver opens path with the named driver. Both drivers get foreign keys
// and a busy timeout, spelled the way each driver expects.
func OpenDriver(driver, path string) (*sql.DB, error) {
	dsn, err := dsnFor(driver, path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	return db, nil
}

func dsnFor(driver, path string) (string, error) {
	switch driver {
	case DriverSQLite3, "":
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path), nil
	case DriverSQLite:
		return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Bootstrap creates the database directory if needed, applies pending
// migrations and opens the store.
func Bootstrap(driver, path string) (*sql.DB, error) {
	if driver == "" {
		driver = DriverSQLite3
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	if err := RunMigrations(driver, path); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return OpenDriver(driver, path)
}

// WithTx runs fn in a transaction. Any error from fn rolls back everything fn
// wrote.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	migratesqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// RunMigrations applies all embedded up migrations to the database at path.
// It uses its own connection because closing the migrator closes the
// database handle it was given.
func RunMigrations(driver, path string) error {
	db, err := OpenDriver(driver, path)
	if err != nil {
		return err
	}
	return RunMigrationsWithDB(db, driver)
}

// RunMigrationsWithDB migrates an existing handle and closes it when done.
func RunMigrationsWithDB(db *sql.DB, driver string) error {
	var (
		instance migratedb.Driver
		err      error
	)
	switch driver {
	case DriverSQLite3, "":
		driver = DriverSQLite3
		instance, err = migratesqlite3.WithInstance(db, &migratesqlite3.Config{})
	case DriverSQLite:
		instance, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	default:
		_ = db.Close()
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		_ = db.Close()
		return err
	}

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		_ = db.Close()
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, driver, instance)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

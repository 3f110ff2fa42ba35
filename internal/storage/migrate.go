package storage

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// The receipt, product and shopping-list schema ships inside the binary, so
// a fresh database file is usable on first start.
//
//go:embed migrations/*.sql
var schemaFS embed.FS

// RunMigrations brings the receipts database up to the embedded schema
// version. It uses its own short-lived connection; the repository pool never
// sees a half-migrated schema.
func RunMigrations(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database for migration: %w", err)
	}
	defer db.Close()

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("prepare sqlite driver: %w", err)
	}
	src, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded schema: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

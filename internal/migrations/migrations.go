// Package migrations carries the embedded Postgres schema for the catalog
// and activity tables.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var Files embed.FS

// Apply brings the schema in db up to the newest embedded version. A dirty
// version left by an interrupted run is rolled back one step first. With
// autoMigrate off it only reports the current version.
func Apply(db *sql.DB, autoMigrate bool) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		if err := recoverDirty(m, version); err != nil {
			return err
		}
	}

	if !autoMigrate {
		slog.Info("[Migrations] Auto-migrate off, schema left as is", "version", version, "dirty", dirty)
		return nil
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		slog.Info("[Migrations] Schema current", "version", version)
		return nil
	case err != nil:
		return fmt.Errorf("apply schema migrations: %w", err)
	}

	applied, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("read schema version after apply: %w", err)
	}
	slog.Info("[Migrations] Schema applied", "from", version, "to", applied)
	return nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(Files, ".")
	if err != nil {
		return nil, fmt.Errorf("open embedded schema: %w", err)
	}
	drv, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres schema driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", drv)
	if err != nil {
		return nil, fmt.Errorf("build migrator: %w", err)
	}
	return m, nil
}

// recoverDirty forces the version below the interrupted one so Up replays it.
// Every up script is written to be re-runnable.
func recoverDirty(m *migrate.Migrate, version uint) error {
	target := forceTarget(version)
	slog.Warn("[Migrations] Dirty schema version, forcing back", "version", version, "force_to", target)
	if err := m.Force(target); err != nil {
		return fmt.Errorf("force dirty schema version %d to %d: %w", version, target, err)
	}
	return nil
}

// forceTarget returns the version to force when version is dirty. -1 is
// migrate's nil version.
func forceTarget(version uint) int {
	if version <= 1 {
		return -1
	}
	return int(version) - 1
}

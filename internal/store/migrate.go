// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package store

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	// Register pgx/v5 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// The embedded FS never changes at runtime, so it is indexed once.
var (
	catalogueOnce sync.Once
	catalogueList []embeddedMigration
	catalogueErr  error
)

// migrateIface is the subset of *migrate.Migrate the Migrator drives. Tests
// substitute a fake so no database is needed.
type migrateIface interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Close() (source error, database error)
}

// Migrator applies the embedded schema migrations.
type Migrator struct {
	m migrateIface
}

// MigrationStatus summarizes the schema state of a database.
type MigrationStatus struct {
	Current uint   `json:"current" yaml:"current"`
	Latest  uint   `json:"latest" yaml:"latest"`
	Dirty   bool   `json:"dirty" yaml:"dirty"`
	Pending []uint `json:"pending" yaml:"pending"`
}

// migrateURL rewrites postgres:// and postgresql:// to the pgx5:// scheme
// golang-migrate registers for the pgx/v5 driver.
func migrateURL(databaseURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(databaseURL, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return databaseURL
}

// NewMigrator opens a migrator against databaseURL.
func NewMigrator(databaseURL string) (*Migrator, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, oops.Code("MIGRATION_SOURCE_FAILED").With("operation", "open embedded migrations").Wrap(err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(databaseURL))
	if err != nil {
		_ = source.Close() //nolint:errcheck // init error takes precedence
		return nil, oops.Code("MIGRATION_INIT_FAILED").With("operation", "connect migrator").Wrap(err)
	}

	return &Migrator{m: m}, nil
}

// Up applies every pending migration. Being already current is not an error.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_UP_FAILED").Wrap(err)
	}
	return nil
}

// Down reverts every migration, dropping all auth tables and their data.
func (m *Migrator) Down() error {
	if err := m.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_DOWN_FAILED").Wrap(err)
	}
	return nil
}

// Steps moves n migrations up (n > 0) or down (n < 0).
func (m *Migrator) Steps(n int) error {
	if n == 0 {
		return nil
	}
	if err := m.m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_STEPS_FAILED").With("steps", n).Wrap(err)
	}
	return nil
}

// Version reports the applied version and whether the last migration failed
// midway. An untouched database is version 0.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	return version, dirty, nil
}

// Force records version as applied and clears the dirty flag without running
// anything. It is the recovery step after repairing a failed migration by hand.
func (m *Migrator) Force(version int) error {
	if version < 0 {
		return oops.Code("INVALID_VERSION").Errorf("version must be non-negative, got %d", version)
	}
	if err := m.m.Force(version); err != nil {
		return oops.Code("MIGRATION_FORCE_FAILED").With("version", version).Wrap(err)
	}
	return nil
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	switch {
	case srcErr != nil && dbErr != nil:
		return oops.Code("MIGRATION_CLOSE_FAILED").
			With("component", "both").
			Errorf("source: %v; database: %v", srcErr, dbErr)
	case srcErr != nil:
		return oops.Code("MIGRATION_CLOSE_FAILED").With("component", "source").Wrap(srcErr)
	case dbErr != nil:
		return oops.Code("MIGRATION_CLOSE_FAILED").With("component", "database").Wrap(dbErr)
	}
	return nil
}

// Status reports current, latest and pending versions.
func (m *Migrator) Status() (MigrationStatus, error) {
	current, dirty, err := m.Version()
	if err != nil {
		return MigrationStatus{}, err
	}
	all, err := allMigrationVersions()
	if err != nil {
		return MigrationStatus{}, err
	}

	st := MigrationStatus{Current: current, Dirty: dirty}
	if len(all) > 0 {
		st.Latest = all[len(all)-1]
	}
	for _, v := range all {
		if v > current {
			st.Pending = append(st.Pending, v)
		}
	}
	return st, nil
}

// embeddedMigration is one *.up.sql file of the embedded set.
type embeddedMigration struct {
	version uint
	name    string // NNNNNN_description
}

// catalogue returns the embedded migrations ordered by version.
func catalogue() ([]embeddedMigration, error) {
	catalogueOnce.Do(func() {
		catalogueList, catalogueErr = readCatalogue()
	})
	return catalogueList, catalogueErr
}

func allMigrationVersions() ([]uint, error) {
	list, err := catalogue()
	if err != nil {
		return nil, err
	}
	out := make([]uint, len(list))
	for i, mig := range list {
		out[i] = mig.version
	}
	return out, nil
}

// readCatalogue parses NNNNNN from each *.up.sql name. Misnamed files are
// skipped with a warning; TestMigrationsFS_EmbeddedFiles keeps the set clean.
func readCatalogue() ([]embeddedMigration, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, oops.Code("MIGRATION_LIST_FAILED").With("operation", "read migrations dir").Wrap(err)
	}

	var list []embeddedMigration
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ".up.sql")
		if !ok {
			continue
		}
		var version uint
		if _, err := fmt.Sscanf(name, "%06d", &version); err != nil {
			slog.Warn("skipping migration with unexpected name",
				"filename", entry.Name(),
				"expected_format", "NNNNNN_name.up.sql",
				"error", err)
			continue
		}
		list = append(list, embeddedMigration{version: version, name: name})
	}

	slices.SortFunc(list, func(a, b embeddedMigration) int {
		return int(a.version) - int(b.version)
	})
	return slices.CompactFunc(list, func(a, b embeddedMigration) bool {
		return a.version == b.version
	}), nil
}

// MigrationName returns "NNNNNN_name" for version, or "" when no such
// migration is embedded.
func MigrationName(version uint) (string, error) {
	list, err := catalogue()
	if err != nil {
		return "", err
	}
	i, found := slices.BinarySearchFunc(list, version, func(mig embeddedMigration, v uint) int {
		return int(mig.version) - int(v)
	})
	if !found {
		return "", nil
	}
	return list[i].name, nil
}

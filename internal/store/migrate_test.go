// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package store

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventoryapp/inventoryauth/pkg/errutil"
)

// fakeMigrate stands in for *migrate.Migrate.
type fakeMigrate struct {
	upErr      error
	downErr    error
	stepsErr   error
	steps      []int
	version    uint
	dirty      bool
	versionErr error
	forced     []int
	forceErr   error
	srcErr     error
	dbErr      error
}

func (f *fakeMigrate) Up() error   { return f.upErr }
func (f *fakeMigrate) Down() error { return f.downErr }
func (f *fakeMigrate) Steps(n int) error {
	f.steps = append(f.steps, n)
	return f.stepsErr
}
func (f *fakeMigrate) Version() (uint, bool, error) { return f.version, f.dirty, f.versionErr }
func (f *fakeMigrate) Force(v int) error {
	f.forced = append(f.forced, v)
	return f.forceErr
}
func (f *fakeMigrate) Close() (error, error) { return f.srcErr, f.dbErr }

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://u:p@db:5432/inventory", "pgx5://u:p@db:5432/inventory"},
		{"postgresql://db/inventory?sslmode=disable", "pgx5://db/inventory?sslmode=disable"},
		{"pgx5://db/inventory", "pgx5://db/inventory"},
		{"mysql://db/inventory", "mysql://db/inventory"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, migrateURL(tt.in))
		})
	}
}

func TestNewMigrator_UnknownScheme(t *testing.T) {
	_, err := NewMigrator("badscheme://localhost:5432/inventory")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
}

func TestNewMigrator_PostgresqlSchemeIsRecognized(t *testing.T) {
	_, err := NewMigrator("postgresql://127.0.0.1:1/inventory?connect_timeout=1")
	require.Error(t, err, "nothing listens on port 1")
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
	assert.NotContains(t, err.Error(), "unknown driver")
}

func TestMigrator_Up(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "applies", err: nil},
		{name: "already current", err: migrate.ErrNoChange},
		{name: "fails", err: errors.New("relation already exists"), wantCode: "MIGRATION_UP_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migrator{m: &fakeMigrate{upErr: tt.err}}
			err := m.Up()
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, tt.wantCode)
		})
	}
}

func TestMigrator_Down(t *testing.T) {
	require.NoError(t, (&Migrator{m: &fakeMigrate{downErr: migrate.ErrNoChange}}).Down())

	err := (&Migrator{m: &fakeMigrate{downErr: errors.New("lock timeout")}}).Down()
	errutil.AssertErrorCode(t, err, "MIGRATION_DOWN_FAILED")
}

func TestMigrator_Steps(t *testing.T) {
	t.Run("zero never reaches the driver", func(t *testing.T) {
		f := &fakeMigrate{}
		require.NoError(t, (&Migrator{m: f}).Steps(0))
		assert.Empty(t, f.steps)
	})

	t.Run("passes count through", func(t *testing.T) {
		f := &fakeMigrate{}
		require.NoError(t, (&Migrator{m: f}).Steps(-2))
		assert.Equal(t, []int{-2}, f.steps)
	})

	t.Run("failure carries step count", func(t *testing.T) {
		err := (&Migrator{m: &fakeMigrate{stepsErr: errors.New("file does not exist")}}).Steps(4)
		errutil.AssertErrorCode(t, err, "MIGRATION_STEPS_FAILED")
		errutil.AssertErrorContext(t, err, "steps", 4)
	})
}

func TestMigrator_Version(t *testing.T) {
	t.Run("fresh database is zero", func(t *testing.T) {
		v, dirty, err := (&Migrator{m: &fakeMigrate{versionErr: migrate.ErrNilVersion}}).Version()
		require.NoError(t, err)
		assert.Equal(t, uint(0), v)
		assert.False(t, dirty)
	})

	t.Run("reports dirty state", func(t *testing.T) {
		v, dirty, err := (&Migrator{m: &fakeMigrate{version: 2, dirty: true}}).Version()
		require.NoError(t, err)
		assert.Equal(t, uint(2), v)
		assert.True(t, dirty)
	})

	t.Run("driver failure", func(t *testing.T) {
		_, _, err := (&Migrator{m: &fakeMigrate{versionErr: errors.New("connection reset")}}).Version()
		errutil.AssertErrorCode(t, err, "MIGRATION_VERSION_FAILED")
	})
}

func TestMigrator_Force(t *testing.T) {
	t.Run("negative version rejected before the driver", func(t *testing.T) {
		f := &fakeMigrate{}
		err := (&Migrator{m: f}).Force(-1)
		errutil.AssertErrorCode(t, err, "INVALID_VERSION")
		assert.Empty(t, f.forced)
	})

	t.Run("forces", func(t *testing.T) {
		f := &fakeMigrate{}
		require.NoError(t, (&Migrator{m: f}).Force(2))
		assert.Equal(t, []int{2}, f.forced)
	})

	t.Run("driver failure", func(t *testing.T) {
		err := (&Migrator{m: &fakeMigrate{forceErr: errors.New("locked")}}).Force(1)
		errutil.AssertErrorCode(t, err, "MIGRATION_FORCE_FAILED")
		errutil.AssertErrorContext(t, err, "version", 1)
	})
}

func TestMigrator_Close(t *testing.T) {
	tests := []struct {
		name          string
		src, db       error
		wantComponent string
	}{
		{name: "clean"},
		{name: "source", src: errors.New("src"), wantComponent: "source"},
		{name: "database", db: errors.New("db"), wantComponent: "database"},
		{name: "both", src: errors.New("src"), db: errors.New("db"), wantComponent: "both"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Migrator{m: &fakeMigrate{srcErr: tt.src, dbErr: tt.db}}).Close()
			if tt.wantComponent == "" {
				require.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")
			errutil.AssertErrorContext(t, err, "component", tt.wantComponent)
		})
	}
}

func TestMigrator_Status(t *testing.T) {
	t.Run("fresh database has everything pending", func(t *testing.T) {
		st, err := (&Migrator{m: &fakeMigrate{versionErr: migrate.ErrNilVersion}}).Status()
		require.NoError(t, err)
		assert.Equal(t, MigrationStatus{Current: 0, Latest: 3, Pending: []uint{1, 2, 3}}, st)
	})

	t.Run("partially migrated", func(t *testing.T) {
		st, err := (&Migrator{m: &fakeMigrate{version: 1}}).Status()
		require.NoError(t, err)
		assert.Equal(t, []uint{2, 3}, st.Pending)
		assert.Equal(t, uint(3), st.Latest)
	})

	t.Run("current", func(t *testing.T) {
		st, err := (&Migrator{m: &fakeMigrate{version: 3}}).Status()
		require.NoError(t, err)
		assert.Empty(t, st.Pending)
	})

	t.Run("version failure propagates", func(t *testing.T) {
		_, err := (&Migrator{m: &fakeMigrate{versionErr: errors.New("boom")}}).Status()
		errutil.AssertErrorCode(t, err, "MIGRATION_VERSION_FAILED")
	})
}

func TestMigrator_StatusOfEmptyDatabase(t *testing.T) {
	st, err := (&Migrator{m: &fakeMigrate{versionErr: migrate.ErrNilVersion}}).Status()
	require.NoError(t, err)
	assert.Zero(t, st.Current)
	assert.Equal(t, []uint{1, 2, 3}, st.Pending)
}

func TestAllMigrationVersions_ReturnsCopy(t *testing.T) {
	first, err := allMigrationVersions()
	require.NoError(t, err)
	require.NotEmpty(t, first)
	first[0] = 999

	second, err := allMigrationVersions()
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3}, second)
}

func TestMigrationName(t *testing.T) {
	tests := []struct {
		version uint
		want    string
	}{
		{1, "000001_directory"},
		{2, "000002_tokens"},
		{3, "000003_notifications"},
		{42, ""},
	}
	for _, tt := range tests {
		name, err := MigrationName(tt.version)
		require.NoError(t, err)
		assert.Equal(t, tt.want, name, "version %d", tt.version)
	}
}

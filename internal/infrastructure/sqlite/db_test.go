package sqlite

import (
	"database/sql"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/plugtree/internal/domain/plugin"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewDB_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "state.db")

	db, err := NewDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	info, err := os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)
	require.True(t, info.IsDir())
	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	}
	require.Equal(t, dbPath, db.Path())
}

func TestNewDB_RunsMigrations(t *testing.T) {
	db := newTestDB(t)

	for _, table := range []string{"disabled_plugins", "resolution_runs", "run_diagnostics"} {
		var name string
		err := db.conn.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}

	var version int
	var dirty bool
	require.NoError(t, db.conn.QueryRow("SELECT version, dirty FROM schema_migrations").Scan(&version, &dirty))
	require.Equal(t, 1, version)
	require.False(t, dirty)
}

func TestNewDB_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")

	db1, err := NewDB(dbPath)
	require.NoError(t, err)
	require.NoError(t, db1.StateRepository().SetDisabled("theme", true))
	require.NoError(t, db1.Close())

	db2, err := NewDB(dbPath)
	require.NoError(t, err, "reopening with no pending migrations succeeds")
	defer db2.Close()

	names, err := db2.StateRepository().DisabledPlugins()
	require.NoError(t, err)
	require.Equal(t, []string{"theme"}, names)

	info, err := os.Stat(dbPath + ".bak")
	require.NoError(t, err, "existing database is backed up")
	require.Greater(t, info.Size(), int64(0))
}

func TestNewDB_Pragmas(t *testing.T) {
	db := newTestDB(t)

	var journalMode string
	require.NoError(t, db.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	require.Equal(t, "wal", journalMode)

	var foreignKeys int
	require.NoError(t, db.conn.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	require.Equal(t, 1, foreignKeys)

	var busyTimeout int
	require.NoError(t, db.conn.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	require.Equal(t, 5000, busyTimeout)
}

func TestDB_CloseAndConnection(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)

	require.IsType(t, (*sql.DB)(nil), db.Connection())
	require.NoError(t, db.Connection().Ping())

	require.NoError(t, db.Close())
	require.Error(t, db.conn.Ping())
}

func TestDB_StateRepository(t *testing.T) {
	db := newTestDB(t)

	var _ plugin.StateRepository = db.StateRepository()
}

func TestNewDB_PathIsDirectory(t *testing.T) {
	dir := t.TempDir()

	_, err := NewDB(dir)
	require.Error(t, err)
}

func TestMigrationDriver_Lock(t *testing.T) {
	db := newTestDB(t)
	d, err := newMigrationDriver(db.conn)
	require.NoError(t, err)

	require.NoError(t, d.Lock())
	require.Error(t, d.Lock())
	require.NoError(t, d.Unlock())
	require.Error(t, d.Unlock())
}

func TestMigrationDriver_Version(t *testing.T) {
	db := newTestDB(t)
	d, err := newMigrationDriver(db.conn)
	require.NoError(t, err)

	require.NoError(t, d.SetVersion(7, true))
	v, dirty, err := d.Version()
	require.NoError(t, err)
	require.Equal(t, 7, v)
	require.True(t, dirty)

	require.NoError(t, d.SetVersion(-1, false))
	v, dirty, err = d.Version()
	require.NoError(t, err)
	require.Equal(t, -1, v)
	require.False(t, dirty)
}

package storage

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB opens a fresh file-backed database for schema tests.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "History"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestMigrationRunner_CreatesTables(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run())

	for _, table := range []string{"meta", "urls", "visits", "downloads", "downloads_url_chains"} {
		assert.True(t, tableExists(t, db, table), "table %s should exist", table)
	}
}

func TestMigrationRunner_RecordsVersion(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, CreateSchema(db))

	var version string
	require.NoError(t, db.QueryRow("SELECT value FROM meta WHERE key = 'version'").Scan(&version))
	assert.Equal(t, "2", version)
}

func TestMigrationRunner_Idempotent(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	_, err := db.Exec("INSERT INTO urls (url, title, last_visit_time) VALUES ('https://a', 'A', 1)")
	require.NoError(t, err)

	require.NoError(t, runner.Run())

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM urls").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMigrationRunner_UpgradesPartialSchema(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	all := runner.migrations
	runner.migrations = all[:1]
	require.NoError(t, runner.Run())
	assert.False(t, tableExists(t, db, "downloads"))

	runner.migrations = all
	require.NoError(t, runner.Run())
	assert.True(t, tableExists(t, db, "downloads"))
}

func TestMigrationRunner_InvalidVersion(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec("CREATE TABLE meta (key LONGVARCHAR NOT NULL UNIQUE PRIMARY KEY, value LONGVARCHAR)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO meta (key, value) VALUES ('version', 'abc')")
	require.NoError(t, err)

	err = NewMigrationRunner(db).Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid version")
}

package storage

import (
	"database/sql"
	"fmt"
	"strconv"
)

// migration is one step of the Chromium-compatible history schema.
type migration struct {
	Version int
	Name    string
	Apply   func(tx *sql.Tx) error
}

// MigrationRunner creates the subset of the Chromium "History" schema that
// HistoryStore reads. It is used to build fixture and empty profiles; tabsnap
// never writes to a real browser profile. Progress is tracked in the meta
// table under the "version" key, as Chromium does.
type MigrationRunner struct {
	db         *sql.DB
	migrations []migration
}

// NewMigrationRunner creates a MigrationRunner with all registered steps.
func NewMigrationRunner(db *sql.DB) *MigrationRunner {
	return &MigrationRunner{
		db: db,
		migrations: []migration{
			{Version: 1, Name: "urls_and_visits", Apply: migrateV001},
			{Version: 2, Name: "downloads", Apply: migrateV002},
		},
	}
}

// CreateSchema applies every migration to db.
func CreateSchema(db *sql.DB) error {
	return NewMigrationRunner(db).Run()
}

// Run applies all pending migrations in order.
func (r *MigrationRunner) Run() error {
	if _, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS meta (
			key   LONGVARCHAR NOT NULL UNIQUE PRIMARY KEY,
			value LONGVARCHAR
		)
	`); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}

	current, err := r.currentVersion()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range r.migrations {
		if m.Version <= current {
			continue
		}
		if err := r.apply(m); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}
	}

	return nil
}

// currentVersion returns the recorded schema version, or 0 when none is set.
func (r *MigrationRunner) currentVersion() (int, error) {
	var raw string
	err := r.db.QueryRow("SELECT value FROM meta WHERE key = 'version'").Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q", raw)
	}
	return v, nil
}

// apply executes a migration inside a transaction and records it.
func (r *MigrationRunner) apply(m migration) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := m.Apply(tx); err != nil {
		return err
	}

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES ('version', ?)",
		strconv.Itoa(m.Version),
	); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}

	return tx.Commit()
}

func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS urls (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			url             LONGVARCHAR,
			title           LONGVARCHAR,
			visit_count     INTEGER DEFAULT 0 NOT NULL,
			typed_count     INTEGER DEFAULT 0 NOT NULL,
			last_visit_time INTEGER NOT NULL,
			hidden          INTEGER DEFAULT 0 NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS visits (
			id             INTEGER PRIMARY KEY,
			url            INTEGER NOT NULL,
			visit_time     INTEGER NOT NULL,
			from_visit     INTEGER,
			transition     INTEGER DEFAULT 0 NOT NULL,
			segment_id     INTEGER,
			visit_duration INTEGER DEFAULT 0 NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS urls_url_index    ON urls (url)`,
		`CREATE INDEX IF NOT EXISTS visits_url_index  ON visits (url)`,
		`CREATE INDEX IF NOT EXISTS visits_time_index ON visits (visit_time)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func migrateV002(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS downloads (
			id             INTEGER PRIMARY KEY,
			guid           VARCHAR NOT NULL DEFAULT '',
			current_path   LONGVARCHAR NOT NULL DEFAULT '',
			target_path    LONGVARCHAR NOT NULL,
			start_time     INTEGER NOT NULL,
			received_bytes INTEGER NOT NULL DEFAULT 0,
			total_bytes    INTEGER NOT NULL DEFAULT 0,
			state          INTEGER NOT NULL DEFAULT 0,
			tab_url        VARCHAR NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS downloads_url_chains (
			id          INTEGER NOT NULL,
			chain_index INTEGER NOT NULL,
			url         LONGVARCHAR NOT NULL,
			PRIMARY KEY (id, chain_index)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

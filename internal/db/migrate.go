// Package db provides database schema migration management.
package db

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"
)

// Migration represents a database schema migration.
type Migration struct {
	Version     int
	AppliedAt   time.Time
	Description string
	Checksum    string
}

// migrationDef couples a schema version with its SQL. Migrations are
// compiled into the binary so the backend has no runtime file dependency.
type migrationDef struct {
	version     int
	description string
	sql         string
}

var migrations = []migrationDef{
	{
		version:     1,
		description: "initial_schema",
		sql: `
CREATE TABLE IF NOT EXISTS mutation_queue (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	kind TEXT NOT NULL,
	payload TEXT NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'pending',
	last_error TEXT NOT NULL DEFAULT '',
	enqueued_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sales (
	local_id TEXT PRIMARY KEY,
	object_id TEXT NOT NULL DEFAULT '',
	product_id TEXT NOT NULL,
	product_name TEXT NOT NULL,
	price INTEGER NOT NULL,
	quantity INTEGER NOT NULL,
	total INTEGER NOT NULL,
	date INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS stock (
	id INTEGER PRIMARY KEY CHECK(id = 1),
	raw_chicken INTEGER NOT NULL DEFAULT 0,
	fried_planning INTEGER NOT NULL DEFAULT 0,
	cooked_chicken INTEGER NOT NULL DEFAULT 0
);
INSERT OR IGNORE INTO stock (id) VALUES (1);

CREATE TABLE IF NOT EXISTS financial_notes (
	local_id TEXT PRIMARY KEY,
	object_id TEXT NOT NULL DEFAULT '',
	expression TEXT NOT NULL,
	result TEXT NOT NULL,
	category TEXT NOT NULL,
	sub_category TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	timestamp INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS general_notes (
	local_id TEXT PRIMARY KEY,
	object_id TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	timestamp INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
	object_id TEXT PRIMARY KEY,
	code TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	price INTEGER NOT NULL DEFAULT 0,
	use_chicken INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS autopost (
	id INTEGER PRIMARY KEY CHECK(id = 1),
	caption TEXT NOT NULL DEFAULT '',
	interval INTEGER NOT NULL DEFAULT 60,
	start_time TEXT NOT NULL DEFAULT '08:00',
	end_time TEXT NOT NULL DEFAULT '22:00',
	group_link TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'STOPPED'
);
INSERT OR IGNORE INTO autopost (id) VALUES (1);
`,
	},
}

// Migrator handles database schema migrations.
type Migrator struct {
	db *sql.DB
}

// NewMigrator creates a new Migrator instance.
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db}
}

// Initialize creates the schema_migrations table if it doesn't exist.
func (m *Migrator) Initialize() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY CHECK(version > 0),
		applied_at INTEGER NOT NULL CHECK(applied_at > 0),
		description TEXT NOT NULL CHECK(length(description) > 0),
		checksum TEXT NOT NULL CHECK(length(checksum) = 64)
	);`
	_, err := m.db.Exec(query)
	return err
}

// CurrentVersion returns the current schema version.
func (m *Migrator) CurrentVersion() (int, error) {
	var version int
	err := m.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// GetAppliedMigrations returns all applied migrations.
func (m *Migrator) GetAppliedMigrations() ([]Migration, error) {
	rows, err := m.db.Query("SELECT version, applied_at, description, checksum FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var applied []Migration
	for rows.Next() {
		var mig Migration
		var appliedAt int64
		if err := rows.Scan(&mig.Version, &appliedAt, &mig.Description, &mig.Checksum); err != nil {
			return nil, err
		}
		mig.AppliedAt = time.Unix(appliedAt, 0)
		applied = append(applied, mig)
	}
	return applied, rows.Err()
}

// Up applies all pending migrations.
func (m *Migrator) Up() error {
	if err := m.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize migrations table: %w", err)
	}

	applied, err := m.GetAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}
	appliedVersions := make(map[int]bool)
	for _, mig := range applied {
		appliedVersions[mig.Version] = true
	}

	for _, def := range migrations {
		if appliedVersions[def.version] {
			continue
		}
		if err := m.apply(def); err != nil {
			return fmt.Errorf("failed to apply migration V%d: %w", def.version, err)
		}
	}

	return nil
}

// apply runs a single migration inside a transaction.
func (m *Migrator) apply(def migrationDef) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(def.sql); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	hash := sha256.Sum256([]byte(def.sql))
	checksum := hex.EncodeToString(hash[:])

	query := `INSERT INTO schema_migrations (version, applied_at, description, checksum)
			  VALUES (?, ?, ?, ?)`
	if _, err := tx.Exec(query, def.version, time.Now().Unix(), def.description, checksum); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}

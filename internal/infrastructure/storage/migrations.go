package storage

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up:      migration001InitialSchema,
	},
	{
		Version: 2,
		Name:    "add_match_runs_table",
		Up:      migration002AddMatchRunsTable,
	},
	{
		Version: 3,
		Name:    "add_merge_records_table",
		Up:      migration003AddMergeRecordsTable,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue
		}

		log.Printf("Running migration %d: %s", migration.Version, migration.Name)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec(`
			INSERT INTO schema_migrations (version, name) VALUES (?, ?)
		`, migration.Version, migration.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

func (s *Storage) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func migration001InitialSchema(tx *sql.Tx) error {
	// Amounts are stored as decimal strings to avoid float drift.
	_, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS charges (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_charges_owner ON charges(owner_id);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		charge_id TEXT NOT NULL REFERENCES charges(id),
		amount TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT '',
		business_id TEXT,
		event_date TIMESTAMP NOT NULL,
		debit_date TIMESTAMP,
		description TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_charge ON transactions(charge_id);

	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		charge_id TEXT NOT NULL REFERENCES charges(id),
		type TEXT NOT NULL DEFAULT 'UNPROCESSED',
		amount TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT '',
		doc_date TIMESTAMP NOT NULL,
		creditor_id TEXT,
		debtor_id TEXT,
		description TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_documents_charge ON documents(charge_id);
	`)
	return err
}

func migration002AddMatchRunsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS match_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id TEXT NOT NULL,
		started_at TEXT NOT NULL,
		completed_at TEXT,
		dry_run BOOLEAN NOT NULL DEFAULT 0,
		charges_considered INTEGER NOT NULL DEFAULT 0,
		charges_merged INTEGER NOT NULL DEFAULT 0,
		charges_skipped INTEGER NOT NULL DEFAULT 0,
		charges_errored INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'running'
	)`)
	return err
}

func migration003AddMergeRecordsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS merge_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES match_runs(id),
		surviving_charge_id TEXT NOT NULL,
		donor_charge_id TEXT NOT NULL,
		confidence REAL NOT NULL,
		amount_score REAL NOT NULL,
		currency_score REAL NOT NULL,
		business_score REAL NOT NULL,
		date_score REAL NOT NULL,
		dry_run BOOLEAN NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_merge_records_run ON merge_records(run_id);
	`)
	return err
}

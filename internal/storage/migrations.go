package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 6

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "DSM site-month records",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS dsm_records (
					site TEXT NOT NULL,
					month TEXT NOT NULL,
					state_code TEXT NOT NULL DEFAULT '',
					state_name TEXT NOT NULL DEFAULT '',
					technology TEXT NOT NULL DEFAULT '',
					connectivity TEXT NOT NULL DEFAULT '',
					power_sale_category TEXT NOT NULL DEFAULT '',
					qca TEXT NOT NULL DEFAULT '',
					fiscal_year TEXT NOT NULL DEFAULT '',
					measured_energy_kwh REAL NOT NULL DEFAULT 0,
					actual_revenue_inr REAL NOT NULL DEFAULT 0,
					total_penalty_inr REAL NOT NULL DEFAULT 0,
					plant_capacity_mw REAL NOT NULL DEFAULT 0,
					ppa_rate REAL NOT NULL DEFAULT 0,
					batch_id TEXT NOT NULL DEFAULT '',
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (site, month)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_dsm_records_state ON dsm_records(state_code)`,
				`CREATE INDEX IF NOT EXISTS idx_dsm_records_qca ON dsm_records(qca)`,
				`CREATE INDEX IF NOT EXISTS idx_dsm_records_fy ON dsm_records(fiscal_year)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Ingestion audit log",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS ingestion_logs (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					batch_id TEXT UNIQUE NOT NULL,
					source TEXT NOT NULL DEFAULT '',
					started_at DATETIME NOT NULL,
					finished_at DATETIME NOT NULL,
					rows_total INTEGER NOT NULL DEFAULT 0,
					inserted INTEGER NOT NULL DEFAULT 0,
					updated INTEGER NOT NULL DEFAULT 0,
					skipped INTEGER NOT NULL DEFAULT 0,
					status TEXT NOT NULL,
					error_message TEXT NOT NULL DEFAULT ''
				)`,
				`CREATE INDEX IF NOT EXISTS idx_ingestion_logs_started ON ingestion_logs(started_at)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Site reference mapping",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS site_mappings (
					site TEXT PRIMARY KEY,
					state_code TEXT NOT NULL DEFAULT '',
					state_name TEXT NOT NULL DEFAULT '',
					technology TEXT NOT NULL DEFAULT '',
					connectivity TEXT NOT NULL DEFAULT '',
					power_sale_category TEXT NOT NULL DEFAULT '',
					qca TEXT NOT NULL DEFAULT '',
					plant_capacity_mw REAL NOT NULL DEFAULT 0,
					ppa_rate REAL NOT NULL DEFAULT 0,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			)
		},
	},
	{
		Version:     4,
		Description: "Saved drill-down selections",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS selections (
					name TEXT PRIMARY KEY,
					state TEXT NOT NULL DEFAULT '',
					sites TEXT NOT NULL DEFAULT '[]',
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			)
		},
	},
	{
		Version:     5,
		Description: "Checkpoint metadata",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS checkpoint_metadata (
					id TEXT PRIMARY KEY,
					created_at DATETIME NOT NULL,
					description TEXT,
					file_size INTEGER,
					row_counts TEXT,
					schema_version INTEGER,
					is_auto BOOLEAN DEFAULT 0
				)`,
			)
		},
	},
	{
		Version:     6,
		Description: "Site remarks",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS remarks (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					site TEXT NOT NULL,
					category TEXT NOT NULL,
					priority TEXT NOT NULL,
					status TEXT NOT NULL,
					title TEXT NOT NULL,
					details TEXT NOT NULL DEFAULT '',
					due_date TEXT NOT NULL DEFAULT '',
					created_by TEXT NOT NULL DEFAULT '',
					created_at DATETIME NOT NULL,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX IF NOT EXISTS idx_remarks_site ON remarks(site)`,
				`CREATE INDEX IF NOT EXISTS idx_remarks_status ON remarks(status)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

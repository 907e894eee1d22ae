package store

import (
	"fmt"
)

// migrate runs all pending migrations
func (s *Store) migrate() error {
	// Create migrations table if it doesn't exist
	createMigrationsTableSQL := `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY,
			version INTEGER NOT NULL UNIQUE,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`

	if _, err := s.db.Exec(createMigrationsTableSQL); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Get the current schema version
	var currentVersion int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	s.logger.Debug("current schema version", "version", currentVersion)

	// Define all migrations
	migrations := []struct {
		version int
		sql     string
	}{
		{
			version: 1,
			sql: `
				CREATE TABLE provision_runs (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					run_uuid TEXT NOT NULL,
					start_time DATETIME NOT NULL,
					end_time DATETIME,
					containers_seen INTEGER DEFAULT 0,
					hosts_registered INTEGER DEFAULT 0,
					hosts_skipped INTEGER DEFAULT 0,
					hosts_inventoried INTEGER DEFAULT 0,
					dirs_pruned INTEGER DEFAULT 0,
					status TEXT DEFAULT 'running',
					error_message TEXT
				);

				CREATE TABLE hosts (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					host_id TEXT NOT NULL UNIQUE,
					parent_host TEXT,
					first_seen DATETIME NOT NULL,
					last_seen DATETIME NOT NULL,
					last_run_id INTEGER,
					FOREIGN KEY(last_run_id) REFERENCES provision_runs(id)
				);

				CREATE INDEX idx_provision_runs_start ON provision_runs(start_time);
			`,
		},
	}

	// Apply pending migrations in order
	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO migrations (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}

		s.logger.Info("applied migration", "version", m.version)
	}

	return nil
}

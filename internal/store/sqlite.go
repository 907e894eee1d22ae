package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for run history and the set of
// auto-created hosts. It is observability state only: the generated hosts
// artifact is always rebuilt from the spool, never from here.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a new Store, opening the SQLite database and running migrations
func New(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
	}

	// Run migrations
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug("store initialized", "path", dbPath)
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// CreateProvisionRun inserts a new ProvisionRun and sets its ID
func (s *Store) CreateProvisionRun(run *ProvisionRun) error {
	const query = `
		INSERT INTO provision_runs (
			run_uuid, start_time, end_time, containers_seen, hosts_registered,
			hosts_skipped, hosts_inventoried, dirs_pruned, status, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(
		query,
		run.RunUUID, run.StartTime, run.EndTime, run.ContainersSeen,
		run.HostsRegistered, run.HostsSkipped, run.HostsInventoried,
		run.DirsPruned, run.Status, run.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert provision run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	run.ID = id

	return nil
}

// UpdateProvisionRun updates an existing ProvisionRun by ID
func (s *Store) UpdateProvisionRun(run *ProvisionRun) error {
	const query = `
		UPDATE provision_runs SET
			end_time = ?, containers_seen = ?, hosts_registered = ?,
			hosts_skipped = ?, hosts_inventoried = ?, dirs_pruned = ?,
			status = ?, error_message = ?
		WHERE id = ?
	`

	result, err := s.db.Exec(
		query,
		run.EndTime, run.ContainersSeen, run.HostsRegistered,
		run.HostsSkipped, run.HostsInventoried, run.DirsPruned,
		run.Status, run.ErrorMessage, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update provision run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("provision run not found: %d", run.ID)
	}

	return nil
}

// ListProvisionRuns returns runs ordered by start time descending.
// A limit of 0 returns all runs.
func (s *Store) ListProvisionRuns(limit int) ([]ProvisionRun, error) {
	query := `
		SELECT id, run_uuid, start_time, COALESCE(end_time, start_time),
			containers_seen, hosts_registered, hosts_skipped,
			hosts_inventoried, dirs_pruned, status, COALESCE(error_message, '')
		FROM provision_runs
		ORDER BY start_time DESC, id DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list provision runs: %w", err)
	}
	defer rows.Close()

	var runs []ProvisionRun
	for rows.Next() {
		var run ProvisionRun
		if err := rows.Scan(
			&run.ID, &run.RunUUID, &run.StartTime, &run.EndTime,
			&run.ContainersSeen, &run.HostsRegistered, &run.HostsSkipped,
			&run.HostsInventoried, &run.DirsPruned, &run.Status, &run.ErrorMessage,
		); err != nil {
			return nil, fmt.Errorf("failed to scan provision run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// UpsertHost records a host sighting: first registration inserts the record,
// later ones refresh last_seen, the parent, and the run reference.
func (s *Store) UpsertHost(hostID, parentHost string, runID int64) error {
	const query = `
		INSERT INTO hosts (host_id, parent_host, first_seen, last_seen, last_run_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(host_id) DO UPDATE SET
			parent_host = excluded.parent_host,
			last_seen = excluded.last_seen,
			last_run_id = excluded.last_run_id
	`

	now := time.Now()
	if _, err := s.db.Exec(query, hostID, parentHost, now, now, runID); err != nil {
		return fmt.Errorf("failed to upsert host %s: %w", hostID, err)
	}
	return nil
}

// ListHosts returns all known hosts ordered by host id
func (s *Store) ListHosts() ([]HostRecord, error) {
	const query = `
		SELECT id, host_id, COALESCE(parent_host, ''), first_seen, last_seen,
			COALESCE(last_run_id, 0)
		FROM hosts
		ORDER BY host_id
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}
	defer rows.Close()

	var hosts []HostRecord
	for rows.Next() {
		var h HostRecord
		if err := rows.Scan(&h.ID, &h.HostID, &h.ParentHost, &h.FirstSeen, &h.LastSeen, &h.LastRunID); err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}
		hosts = append(hosts, h)
	}

	return hosts, rows.Err()
}

// CountHosts returns the number of known hosts
func (s *Store) CountHosts() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM hosts").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count hosts: %w", err)
	}
	return count, nil
}

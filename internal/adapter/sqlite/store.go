package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/vertextoedge/index-mirror/internal/port"
)

// Store implements port.RunJournal using SQLite
type Store struct {
	db *sql.DB
}

// Ensure Store implements port.RunJournal
var _ port.RunJournal = (*Store)(nil)

// Open opens a connection to the SQLite database
func Open(dbPath string) (*Store, error) {
	// Pragmas in the DSN apply to every pooled connection
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	store := &Store{db: db}

	// Run migrations
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// migrate creates or updates the database schema
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			base_url TEXT NOT NULL,
			output_dir TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'running',
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP,
			dirs_scanned INTEGER NOT NULL DEFAULT 0,
			dirs_failed INTEGER NOT NULL DEFAULT 0,
			dirs_skipped INTEGER NOT NULL DEFAULT 0,
			files_downloaded INTEGER NOT NULL DEFAULT 0,
			files_skipped INTEGER NOT NULL DEFAULT 0,
			files_failed INTEGER NOT NULL DEFAULT 0,
			bytes_written INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS file_outcomes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			url TEXT NOT NULL,
			local_path TEXT NOT NULL,
			status TEXT NOT NULL,
			remote_size INTEGER NOT NULL DEFAULT -1,
			local_size_before INTEGER NOT NULL DEFAULT -1,
			bytes_written INTEGER NOT NULL DEFAULT 0,
			elapsed_ms INTEGER NOT NULL DEFAULT 0,
			speed_mbps REAL NOT NULL DEFAULT 0,
			content_kind TEXT,
			last_error TEXT,
			recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_file_outcomes_run_id ON file_outcomes(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_file_outcomes_status ON file_outcomes(status)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, migration)
		}
	}

	return nil
}

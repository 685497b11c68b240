package sqlite

import (
	"database/sql"

	"github.com/vertextoedge/index-mirror/internal/domain"
)

// StartRun inserts a new run in running state
func (s *Store) StartRun(summary *domain.RunSummary) error {
	query := `
		INSERT INTO runs (id, base_url, output_dir, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		summary.RunID, summary.BaseURL, summary.OutputDir,
		domain.RunStatusRunning, summary.StartedAt.UTC())
	return err
}

// RecordOutcome appends one file outcome to a run
func (s *Store) RecordOutcome(runID string, outcome *domain.DownloadOutcome) error {
	query := `
		INSERT INTO file_outcomes (
			run_id, url, local_path, status, remote_size, local_size_before,
			bytes_written, elapsed_ms, speed_mbps, content_kind, last_error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var contentKind, lastError sql.NullString
	if outcome.ContentKind != "" {
		contentKind = sql.NullString{String: outcome.ContentKind, Valid: true}
	}
	if outcome.Err != nil {
		lastError = sql.NullString{String: outcome.Err.Error(), Valid: true}
	}

	_, err := s.db.Exec(query,
		runID, outcome.URL, outcome.LocalPath, string(outcome.Status),
		outcome.RemoteSize, outcome.LocalSizeBefore, outcome.BytesWritten,
		outcome.Elapsed.Milliseconds(), outcome.SpeedMBps,
		contentKind, lastError)
	return err
}

// FinishRun stores the final counters and status of a run
func (s *Store) FinishRun(summary *domain.RunSummary, status string) error {
	query := `
		UPDATE runs
		SET status = ?,
			finished_at = ?,
			dirs_scanned = ?,
			dirs_failed = ?,
			dirs_skipped = ?,
			files_downloaded = ?,
			files_skipped = ?,
			files_failed = ?,
			bytes_written = ?
		WHERE id = ?
	`

	var finishedAt sql.NullTime
	if summary.FinishedAt != nil {
		finishedAt = sql.NullTime{Time: summary.FinishedAt.UTC(), Valid: true}
	}

	result, err := s.db.Exec(query,
		status, finishedAt,
		summary.DirectoriesScanned, summary.DiscoveryFailures, summary.DirectoriesSkipped,
		summary.FilesDownloaded, summary.FilesSkipped, summary.FilesFailed,
		summary.BytesWritten, summary.RunID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

// RecentRuns returns the latest runs, newest first
func (s *Store) RecentRuns(limit int) ([]*domain.RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, base_url, output_dir, status, started_at, finished_at,
			   dirs_scanned, dirs_failed, dirs_skipped,
			   files_downloaded, files_skipped, files_failed, bytes_written
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.RunRecord
	for rows.Next() {
		r := &domain.RunRecord{}
		var finishedAt sql.NullTime

		err := rows.Scan(
			&r.RunID, &r.BaseURL, &r.OutputDir, &r.Status, &r.StartedAt, &finishedAt,
			&r.DirectoriesScanned, &r.DiscoveryFailures, &r.DirectoriesSkipped,
			&r.FilesDownloaded, &r.FilesSkipped, &r.FilesFailed, &r.BytesWritten,
		)
		if err != nil {
			return nil, err
		}

		if finishedAt.Valid {
			r.FinishedAt = &finishedAt.Time
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

package port

import (
	"github.com/vertextoedge/index-mirror/internal/domain"
)

// RunJournal persists a write-only history of mirror runs.
// It is never consulted for skip decisions; the files on disk are the only
// resume state.
type RunJournal interface {
	// StartRun records a new run
	StartRun(summary *domain.RunSummary) error

	// RecordOutcome appends one file outcome to a run
	RecordOutcome(runID string, outcome *domain.DownloadOutcome) error

	// FinishRun stores the final counters and status of a run
	FinishRun(summary *domain.RunSummary, status string) error

	// RecentRuns returns the latest runs, newest first
	RecentRuns(limit int) ([]*domain.RunRecord, error)
}

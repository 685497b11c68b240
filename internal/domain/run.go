package domain

import "time"

// RunSummary aggregates the outcome of one mirror run
type RunSummary struct {
	RunID      string
	BaseURL    string
	OutputDir  string
	StartedAt  time.Time
	FinishedAt *time.Time

	DirectoriesScanned int
	DiscoveryFailures  int
	DirectoriesSkipped int

	FilesDownloaded int
	FilesSkipped    int
	FilesFailed     int
	BytesWritten    int64
}

// Record folds a file outcome into the summary
func (s *RunSummary) Record(outcome *DownloadOutcome) {
	switch outcome.Status {
	case OutcomeDownloaded:
		s.FilesDownloaded++
		s.BytesWritten += outcome.BytesWritten
	case OutcomeSkipped:
		s.FilesSkipped++
	case OutcomeFailed:
		s.FilesFailed++
	}
}

// TotalFiles returns the number of files visited
func (s *RunSummary) TotalFiles() int {
	return s.FilesDownloaded + s.FilesSkipped + s.FilesFailed
}

// Duration returns how long the run took, or the time elapsed so far
func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt != nil {
		return s.FinishedAt.Sub(s.StartedAt)
	}
	return time.Since(s.StartedAt)
}

// Finish stamps the completion time
func (s *RunSummary) Finish() {
	now := time.Now()
	s.FinishedAt = &now
}

// RunRecord is a journaled run as read back from storage
type RunRecord struct {
	RunSummary
	Status string
}

// Run status constants
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusAborted   = "aborted"
)

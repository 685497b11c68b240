package domain

import "time"

// OutcomeStatus is the terminal state of a single file fetch
type OutcomeStatus string

// Outcome status constants
const (
	OutcomeDownloaded OutcomeStatus = "downloaded"
	OutcomeSkipped    OutcomeStatus = "skipped"
	OutcomeFailed     OutcomeStatus = "failed"
)

// UnknownSize marks a remote size that could not be determined
const UnknownSize int64 = -1

// DownloadOutcome represents the result of a file fetch
type DownloadOutcome struct {
	URL       string
	LocalPath string
	Status    OutcomeStatus

	// RemoteSize is the size declared by the HEAD probe, or UnknownSize
	RemoteSize int64

	// LocalSizeBefore is the size of a pre-existing local file, or -1
	LocalSizeBefore int64

	// BytesWritten is the size of the written file, read back after close
	BytesWritten int64

	Elapsed          time.Duration
	SpeedMBps        float64
	AverageSpeedMBps float64

	// Estimate is the HH:MM:SS completion estimate for a similarly sized
	// file, empty when the remote size or the average speed is unknown
	Estimate string

	// ContentKind is the sniffed file type extension, empty if unknown
	ContentKind string

	// ProbeErr is set when the size probe failed
	ProbeErr error

	// Err is set when the transfer failed
	Err error

	// CleanupErr is set when a partial file could not be removed
	CleanupErr error
}

// RemoteSizeKnown returns true if the HEAD probe reported a size
func (o *DownloadOutcome) RemoteSizeKnown() bool {
	return o.RemoteSize >= 0
}

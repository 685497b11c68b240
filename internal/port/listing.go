package port

import (
	"context"

	"github.com/vertextoedge/index-mirror/internal/domain"
)

// Discoverer lists the child entries of a remote directory
type Discoverer interface {
	// Discover returns the entries of the listing at url in document order.
	// Errors are *domain.DiscoveryError.
	Discover(ctx context.Context, url string) ([]domain.DirectoryEntry, error)
}

// Fetcher materializes one remote file at a local path
type Fetcher interface {
	// Fetch always returns an outcome; the error is non-nil iff the
	// outcome is failed.
	Fetch(ctx context.Context, url, localPath string) (*domain.DownloadOutcome, error)

	// ResetSpeeds clears the throughput samples collected so far
	ResetSpeeds()
}

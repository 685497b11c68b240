package port

import (
	"context"
	"io"
)

// RemoteClient issues the HTTP requests the mirror needs
type RemoteClient interface {
	// GetListing fetches a directory listing page with the request timeout
	GetListing(ctx context.Context, url string) (io.ReadCloser, error)

	// ContentLength issues a HEAD request and returns the declared size.
	// Returns domain.ErrUnknownSize when the header is missing or invalid.
	ContentLength(ctx context.Context, url string) (int64, error)

	// Download starts a streaming GET of a file body
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

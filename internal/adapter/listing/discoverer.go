package listing

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/vertextoedge/index-mirror/internal/domain"
	"github.com/vertextoedge/index-mirror/internal/domain/event"
	"github.com/vertextoedge/index-mirror/internal/port"
)

// Discoverer fetches listing pages and turns them into directory entries
type Discoverer struct {
	client     port.RemoteClient
	dispatcher event.EventDispatcher
	logger     *zap.Logger
}

// Ensure Discoverer implements port.Discoverer
var _ port.Discoverer = (*Discoverer)(nil)

// NewDiscoverer creates a new Discoverer
func NewDiscoverer(client port.RemoteClient, dispatcher event.EventDispatcher, logger *zap.Logger) *Discoverer {
	if dispatcher == nil {
		dispatcher = event.NewNullDispatcher()
	}
	return &Discoverer{
		client:     client,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Discover fetches the listing at pageURL and returns its entries
func (d *Discoverer) Discover(ctx context.Context, pageURL string) ([]domain.DirectoryEntry, error) {
	d.dispatcher.Dispatch(event.NewScanStarted(pageURL))

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, domain.NewDiscoveryError(pageURL, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
	}

	body, err := d.client.GetListing(ctx, pageURL)
	if err != nil {
		return nil, domain.NewDiscoveryError(pageURL, err)
	}
	defer body.Close()

	entries, rejected, err := ParseListing(body, base)
	if err != nil {
		return nil, domain.NewDiscoveryError(pageURL, err)
	}

	for _, r := range rejected {
		d.logger.Debug("dropping unparsable href",
			zap.String("page", pageURL),
			zap.String("href", r.Href),
			zap.Error(r.Err))
	}

	for _, e := range entries {
		d.dispatcher.Dispatch(event.NewEntryDiscovered(pageURL, e))
	}

	return entries, nil
}

package remote

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quic-go/quic-go/http3"

	"github.com/vertextoedge/index-mirror/internal/domain"
	"github.com/vertextoedge/index-mirror/internal/port"
)

// Client is the HTTP client for listing pages and file bodies
type Client struct {
	userAgent      string
	listingClient  *http.Client
	probeClient    *http.Client
	downloadClient *http.Client
}

// Ensure Client implements port.RemoteClient
var _ port.RemoteClient = (*Client)(nil)

// ClientConfig contains client configuration
type ClientConfig struct {
	RequestTimeout time.Duration // listing GET timeout (default: 15s)
	HeadTimeout    time.Duration // size probe timeout (default: 10s)
	UserAgent      string
	SkipTLSVerify  bool
	HTTP3          bool
}

// DefaultClientConfig returns the default client configuration
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		RequestTimeout: 15 * time.Second,
		HeadTimeout:    10 * time.Second,
		UserAgent:      "index-mirror",
	}
}

// NewClient creates a new remote client
func NewClient(cfg *ClientConfig) *Client {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.HeadTimeout <= 0 {
		cfg.HeadTimeout = 10 * time.Second
	}

	transport, downloadTransport := newTransports(cfg)

	return NewClientWithHTTP(cfg,
		&http.Client{Transport: transport, Timeout: cfg.RequestTimeout},
		&http.Client{Transport: transport, Timeout: cfg.HeadTimeout},
		&http.Client{Transport: downloadTransport, Timeout: 0}, // No timeout for downloads
	)
}

// newTransports builds the shared listing/HEAD transport and the dedicated
// download transport. Downloads never negotiate compression, on either
// protocol, so the written size matches Content-Length.
func newTransports(cfg *ClientConfig) (transport, download http.RoundTripper) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.SkipTLSVerify,
	}

	if cfg.HTTP3 {
		transport = &http3.Transport{TLSClientConfig: tlsConfig}
		download = &http3.Transport{
			TLSClientConfig:    tlsConfig.Clone(),
			DisableCompression: true,
		}
		return transport, download
	}

	transport = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     tlsConfig,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	download = &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: tlsConfig.Clone(),
		IdleConnTimeout: 120 * time.Second,

		// HTTP/2 support
		ForceAttemptHTTP2: true,

		DisableCompression: true,

		// Response header timeout (not total download timeout)
		ResponseHeaderTimeout: 30 * time.Second,
	}
	return transport, download
}

// NewClientWithHTTP creates a client around caller-supplied http.Clients
func NewClientWithHTTP(cfg *ClientConfig, listing, probe, download *http.Client) *Client {
	ua := "index-mirror"
	if cfg != nil && cfg.UserAgent != "" {
		ua = cfg.UserAgent
	}
	return &Client{
		userAgent:      ua,
		listingClient:  listing,
		probeClient:    probe,
		downloadClient: download,
	}
}

// doRequest performs an HTTP request and rejects non-2xx responses
func (c *Client) doRequest(ctx context.Context, client *http.Client, method, urlStr string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &domain.StatusError{Code: resp.StatusCode}
	}

	return resp, nil
}

// GetListing fetches a directory listing page
func (c *Client) GetListing(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := c.doRequest(ctx, c.listingClient, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// ContentLength issues a HEAD request (redirects followed) and returns the
// declared body size
func (c *Client) ContentLength(ctx context.Context, url string) (int64, error) {
	resp, err := c.doRequest(ctx, c.probeClient, http.MethodHead, url)
	if err != nil {
		return domain.UnknownSize, err
	}
	resp.Body.Close()

	if resp.ContentLength < 0 {
		return domain.UnknownSize, domain.ErrUnknownSize
	}
	return resp.ContentLength, nil
}

// Download starts a streaming GET of a file body
func (c *Client) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := c.doRequest(ctx, c.downloadClient, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

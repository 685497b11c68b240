package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quic-go/quic-go/http3"
	"github.com/stretchr/testify/require"

	"github.com/vertextoedge/index-mirror/internal/domain"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/file.bin", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "index-mirror/test" {
			http.Error(w, "bad user agent", http.StatusBadRequest)
			return
		}
		http.ServeContent(w, r, "file.bin", time.Time{}, bytes.NewReader([]byte("0123456789")))
	})
	mux.HandleFunc("/redirect.bin", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/file.bin", http.StatusFound)
	})
	mux.HandleFunc("/nolength", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Transfer-Encoding", "chunked")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/listing/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, `<a href="a.csv">a.csv</a>`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient() *Client {
	return NewClient(&ClientConfig{
		RequestTimeout: 5 * time.Second,
		HeadTimeout:    5 * time.Second,
		UserAgent:      "index-mirror/test",
	})
}

func TestClient_ContentLength(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient()
	ctx := context.Background()

	size, err := c.ContentLength(ctx, srv.URL+"/file.bin")
	require.NoError(t, err)
	require.Equal(t, int64(10), size)

	size, err = c.ContentLength(ctx, srv.URL+"/redirect.bin")
	require.NoError(t, err)
	require.Equal(t, int64(10), size)

	size, err = c.ContentLength(ctx, srv.URL+"/missing")
	require.Equal(t, domain.UnknownSize, size)
	require.ErrorIs(t, err, domain.ErrUnexpectedStatus)

	var se *domain.StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusNotFound, se.Code)
}

func TestClient_ContentLengthMissingHeader(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient()

	size, err := c.ContentLength(context.Background(), srv.URL+"/nolength")
	require.ErrorIs(t, err, domain.ErrUnknownSize)
	require.Equal(t, domain.UnknownSize, size)
}

func TestClient_Download(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient()

	body, err := c.Download(context.Background(), srv.URL+"/file.bin")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, "0123456789", string(data))

	_, err = c.Download(context.Background(), srv.URL+"/missing")
	require.ErrorIs(t, err, domain.ErrUnexpectedStatus)
}

func TestClient_GetListing(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient()

	body, err := c.GetListing(context.Background(), srv.URL+"/listing/")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Contains(t, string(data), "a.csv")
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient()
	_, err := c.GetListing(context.Background(), url+"/")
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrUnexpectedStatus)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(nil)
	require.Equal(t, 15*time.Second, c.listingClient.Timeout)
	require.Equal(t, 10*time.Second, c.probeClient.Timeout)
	require.Equal(t, time.Duration(0), c.downloadClient.Timeout)
	require.Equal(t, "index-mirror", c.userAgent)
}

func TestClient_DownloadDoesNotRequestCompression(t *testing.T) {
	acceptEncoding := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acceptEncoding <- r.Header.Get("Accept-Encoding")
		io.WriteString(w, "payload")
	}))
	t.Cleanup(srv.Close)

	body, err := newTestClient().Download(context.Background(), srv.URL+"/data.gz")
	require.NoError(t, err)
	_, err = io.ReadAll(body)
	require.NoError(t, err)
	body.Close()

	require.NotContains(t, <-acceptEncoding, "gzip")
}

func TestNewTransports_DownloadDisablesCompression(t *testing.T) {
	_, download := newTransports(&ClientConfig{})
	h1, ok := download.(*http.Transport)
	require.True(t, ok)
	require.True(t, h1.DisableCompression)

	_, download = newTransports(&ClientConfig{HTTP3: true})
	h3, ok := download.(*http3.Transport)
	require.True(t, ok)
	require.True(t, h3.DisableCompression)
}

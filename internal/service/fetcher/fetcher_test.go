package fetcher

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/vertextoedge/index-mirror/internal/adapter/filesystem"
	"github.com/vertextoedge/index-mirror/internal/domain"
	"github.com/vertextoedge/index-mirror/internal/domain/event"
)

// mockRemoteClient implements port.RemoteClient for testing
type mockRemoteClient struct {
	bodies  map[string]string
	sizes   map[string]int64
	headErr map[string]error
	getErr  map[string]error
	breakAt map[string]int // bytes delivered before the body fails
	delay   time.Duration
	heads   int
	gets    int
}

func newMockRemoteClient() *mockRemoteClient {
	return &mockRemoteClient{
		bodies:  make(map[string]string),
		sizes:   make(map[string]int64),
		headErr: make(map[string]error),
		getErr:  make(map[string]error),
		breakAt: make(map[string]int),
	}
}

func (m *mockRemoteClient) serve(url, body string) {
	m.bodies[url] = body
	m.sizes[url] = int64(len(body))
}

func (m *mockRemoteClient) GetListing(ctx context.Context, url string) (io.ReadCloser, error) {
	return nil, errors.New("not a listing")
}

func (m *mockRemoteClient) ContentLength(ctx context.Context, url string) (int64, error) {
	m.heads++
	if err := m.headErr[url]; err != nil {
		return domain.UnknownSize, err
	}
	size, ok := m.sizes[url]
	if !ok {
		return domain.UnknownSize, domain.ErrUnknownSize
	}
	return size, nil
}

func (m *mockRemoteClient) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	m.gets++
	if err := m.getErr[url]; err != nil {
		return nil, err
	}
	body := m.bodies[url]
	var r io.Reader = strings.NewReader(body)
	if n, ok := m.breakAt[url]; ok {
		r = io.MultiReader(strings.NewReader(body[:n]), &errReader{err: errors.New("connection reset by peer")})
	}
	if m.delay > 0 {
		r = &slowReader{r: r, delay: m.delay}
	}
	return io.NopCloser(r), nil
}

type errReader struct{ err error }

func (r *errReader) Read(p []byte) (int, error) { return 0, r.err }

type slowReader struct {
	r     io.Reader
	delay time.Duration
}

func (s *slowReader) Read(p []byte) (int, error) {
	time.Sleep(s.delay)
	return s.r.Read(p)
}

// undeletableFS fails every delete
type undeletableFS struct {
	*filesystem.Manager
}

func (u *undeletableFS) DeleteFile(path string) error {
	return errors.New("device busy")
}

type eventLog struct {
	names []string
}

func (l *eventLog) Handle(e event.DomainEvent) error {
	l.names = append(l.names, e.EventName())
	return nil
}

func (l *eventLog) HandledEvents() []string { return []string{"*"} }

func (l *eventLog) has(name string) bool {
	for _, n := range l.names {
		if n == name {
			return true
		}
	}
	return false
}

type harness struct {
	fs      afero.Fs
	manager *filesystem.Manager
	remote  *mockRemoteClient
	events  *eventLog
	fetcher *Fetcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	fs := afero.NewMemMapFs()
	manager, err := filesystem.NewManagerWithFs(fs, "/data")
	if err != nil {
		t.Fatalf("NewManagerWithFs() error = %v", err)
	}

	remote := newMockRemoteClient()
	events := &eventLog{}
	dispatcher := event.NewInMemoryDispatcher()
	dispatcher.Subscribe(events)

	return &harness{
		fs:      fs,
		manager: manager,
		remote:  remote,
		events:  events,
		fetcher: New(&Config{ChunkSize: 4}, remote, manager, nil, dispatcher, zap.NewNop()),
	}
}

func (h *harness) read(t *testing.T, path string) string {
	t.Helper()
	data, err := afero.ReadFile(h.fs, path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", path, err)
	}
	return string(data)
}

func (h *harness) exists(path string) bool {
	ok, _ := afero.Exists(h.fs, path)
	return ok
}

const fileURL = "http://host/dados/a.csv"

func TestFetcher_FreshDownload(t *testing.T) {
	h := newHarness(t)
	h.remote.serve(fileURL, "id;name\n1;acme\n")

	outcome, err := h.fetcher.Fetch(context.Background(), fileURL, "/data/sub/a.csv")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if outcome.Status != domain.OutcomeDownloaded {
		t.Errorf("Status = %v, want %v", outcome.Status, domain.OutcomeDownloaded)
	}
	if outcome.BytesWritten != 15 {
		t.Errorf("BytesWritten = %d, want 15", outcome.BytesWritten)
	}
	if outcome.RemoteSize != 15 {
		t.Errorf("RemoteSize = %d, want 15", outcome.RemoteSize)
	}
	if outcome.LocalSizeBefore != -1 {
		t.Errorf("LocalSizeBefore = %d, want -1", outcome.LocalSizeBefore)
	}
	if got := h.read(t, "/data/sub/a.csv"); got != "id;name\n1;acme\n" {
		t.Errorf("content = %q", got)
	}
	if h.fetcher.Speeds().Len() != 1 {
		t.Errorf("speed samples = %d, want 1", h.fetcher.Speeds().Len())
	}
	if !h.events.has(event.NameDownloadStarted) || !h.events.has(event.NameDownloadCompleted) {
		t.Errorf("events = %v, want download start and done", h.events.names)
	}
}

func TestFetcher_SkipWhenSizeMatches(t *testing.T) {
	h := newHarness(t)
	h.remote.serve(fileURL, "0123456789")
	afero.WriteFile(h.fs, "/data/a.csv", []byte("abcdefghij"), 0644)

	outcome, err := h.fetcher.Fetch(context.Background(), fileURL, "/data/a.csv")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if outcome.Status != domain.OutcomeSkipped {
		t.Errorf("Status = %v, want %v", outcome.Status, domain.OutcomeSkipped)
	}
	if h.remote.gets != 0 {
		t.Errorf("GET issued %d times, want 0", h.remote.gets)
	}
	if got := h.read(t, "/data/a.csv"); got != "abcdefghij" {
		t.Errorf("skipped file was modified: %q", got)
	}
	if h.fetcher.Speeds().Len() != 0 {
		t.Errorf("skip recorded a speed sample")
	}
	if !h.events.has(event.NameFileSkipped) {
		t.Errorf("events = %v, want %s", h.events.names, event.NameFileSkipped)
	}
}

func TestFetcher_RedownloadOnSizeMismatch(t *testing.T) {
	h := newHarness(t)
	h.remote.serve(fileURL, "0123456789")
	afero.WriteFile(h.fs, "/data/a.csv", []byte("0123"), 0644)

	outcome, err := h.fetcher.Fetch(context.Background(), fileURL, "/data/a.csv")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if outcome.Status != domain.OutcomeDownloaded {
		t.Errorf("Status = %v, want %v", outcome.Status, domain.OutcomeDownloaded)
	}
	if outcome.LocalSizeBefore != 4 {
		t.Errorf("LocalSizeBefore = %d, want 4", outcome.LocalSizeBefore)
	}
	if outcome.BytesWritten != outcome.RemoteSize {
		t.Errorf("final size %d != remote size %d", outcome.BytesWritten, outcome.RemoteSize)
	}
	if got := h.read(t, "/data/a.csv"); got != "0123456789" {
		t.Errorf("content = %q", got)
	}
	if !h.events.has(event.NameFileRedownload) {
		t.Errorf("events = %v, want %s", h.events.names, event.NameFileRedownload)
	}
}

func TestFetcher_HeadFailureStillDownloads(t *testing.T) {
	h := newHarness(t)
	h.remote.serve(fileURL, "payload")
	h.remote.headErr[fileURL] = errors.New("timeout")

	outcome, err := h.fetcher.Fetch(context.Background(), fileURL, "/data/a.csv")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if outcome.Status != domain.OutcomeDownloaded {
		t.Errorf("Status = %v, want %v", outcome.Status, domain.OutcomeDownloaded)
	}
	if outcome.RemoteSizeKnown() {
		t.Errorf("RemoteSize = %d, want unknown", outcome.RemoteSize)
	}
	var probeErr *domain.SizeProbeError
	if !errors.As(outcome.ProbeErr, &probeErr) {
		t.Errorf("ProbeErr = %v, want *domain.SizeProbeError", outcome.ProbeErr)
	}
	if outcome.Estimate != "" {
		t.Errorf("Estimate = %q, want none for unknown size", outcome.Estimate)
	}
	if got := h.read(t, "/data/a.csv"); got != "payload" {
		t.Errorf("content = %q", got)
	}
	if !h.events.has(event.NameSizeProbeFailed) {
		t.Errorf("events = %v, want %s", h.events.names, event.NameSizeProbeFailed)
	}
}

func TestFetcher_UnknownSizeNeverSkips(t *testing.T) {
	h := newHarness(t)
	h.remote.serve(fileURL, "payload")
	h.remote.headErr[fileURL] = errors.New("timeout")
	afero.WriteFile(h.fs, "/data/a.csv", []byte("payload"), 0644)

	outcome, err := h.fetcher.Fetch(context.Background(), fileURL, "/data/a.csv")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if outcome.Status != domain.OutcomeDownloaded {
		t.Errorf("Status = %v, want %v", outcome.Status, domain.OutcomeDownloaded)
	}
	if h.remote.gets != 1 {
		t.Errorf("GET issued %d times, want 1", h.remote.gets)
	}
}

func TestFetcher_ZeroLengthFileSkips(t *testing.T) {
	h := newHarness(t)
	h.remote.serve(fileURL, "")
	afero.WriteFile(h.fs, "/data/empty", nil, 0644)

	outcome, _ := h.fetcher.Fetch(context.Background(), fileURL, "/data/empty")
	if outcome.Status != domain.OutcomeSkipped {
		t.Errorf("Status = %v, want %v", outcome.Status, domain.OutcomeSkipped)
	}
}

func TestFetcher_DirectoryAtLocalPathIsNotSkipped(t *testing.T) {
	h := newHarness(t)
	h.remote.serve(fileURL, "")
	if err := h.fs.MkdirAll("/data/a.csv", 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	outcome, _ := h.fetcher.Fetch(context.Background(), fileURL, "/data/a.csv")
	if outcome.Status == domain.OutcomeSkipped {
		t.Errorf("Status = %v, a directory must not count as an existing file", outcome.Status)
	}
	if h.remote.gets != 1 {
		t.Errorf("GET requests = %d, want 1", h.remote.gets)
	}
	if outcome.LocalSizeBefore != -1 {
		t.Errorf("LocalSizeBefore = %d, want -1", outcome.LocalSizeBefore)
	}
	if h.events.has(event.NameFileSkipped) {
		t.Error("FileSkipped dispatched for a directory")
	}
}

func TestFetcher_MidTransferFailureRemovesPartial(t *testing.T) {
	h := newHarness(t)
	h.remote.serve(fileURL, "0123456789abcdef")
	h.remote.breakAt[fileURL] = 6

	outcome, err := h.fetcher.Fetch(context.Background(), fileURL, "/data/a.csv")
	if err == nil {
		t.Fatal("Fetch() error = nil, want transfer error")
	}
	if !domain.IsTransfer(err) {
		t.Errorf("error = %v, want *domain.TransferError", err)
	}
	if outcome.Status != domain.OutcomeFailed {
		t.Errorf("Status = %v, want %v", outcome.Status, domain.OutcomeFailed)
	}
	if outcome.CleanupErr != nil {
		t.Errorf("CleanupErr = %v, want nil", outcome.CleanupErr)
	}
	if h.exists("/data/a.csv") {
		t.Error("partial file was not removed")
	}
	if h.fetcher.Speeds().Len() != 0 {
		t.Error("failed transfer recorded a speed sample")
	}
	if !h.events.has(event.NameDownloadFailed) {
		t.Errorf("events = %v, want %s", h.events.names, event.NameDownloadFailed)
	}

	// the next run re-attempts and succeeds
	delete(h.remote.breakAt, fileURL)

	outcome, err = h.fetcher.Fetch(context.Background(), fileURL, "/data/a.csv")
	if err != nil {
		t.Fatalf("retry Fetch() error = %v", err)
	}
	if outcome.Status != domain.OutcomeDownloaded || h.read(t, "/data/a.csv") != "0123456789abcdef" {
		t.Errorf("retry outcome = %v, content = %q", outcome.Status, h.read(t, "/data/a.csv"))
	}
}

func TestFetcher_GetFailureRemovesStaleFile(t *testing.T) {
	h := newHarness(t)
	h.remote.serve(fileURL, "0123456789")
	h.remote.getErr[fileURL] = &domain.StatusError{Code: 503}
	afero.WriteFile(h.fs, "/data/a.csv", []byte("0123"), 0644)

	outcome, err := h.fetcher.Fetch(context.Background(), fileURL, "/data/a.csv")
	if !errors.Is(err, domain.ErrUnexpectedStatus) {
		t.Errorf("error = %v, want ErrUnexpectedStatus", err)
	}
	if outcome.Status != domain.OutcomeFailed {
		t.Errorf("Status = %v, want %v", outcome.Status, domain.OutcomeFailed)
	}
	if h.exists("/data/a.csv") {
		t.Error("stale file was not removed after a failed transfer")
	}
}

func TestFetcher_CleanupFailureKeepsFailedOutcome(t *testing.T) {
	h := newHarness(t)
	h.remote.serve(fileURL, "0123456789")
	h.remote.breakAt[fileURL] = 3

	f := New(&Config{ChunkSize: 4}, h.remote, &undeletableFS{Manager: h.manager}, nil, nil, zap.NewNop())

	outcome, err := f.Fetch(context.Background(), fileURL, "/data/a.csv")
	if !domain.IsTransfer(err) {
		t.Fatalf("error = %v, want transfer error", err)
	}
	if outcome.Status != domain.OutcomeFailed {
		t.Errorf("Status = %v, want %v", outcome.Status, domain.OutcomeFailed)
	}
	var cleanupErr *domain.CleanupError
	if !errors.As(outcome.CleanupErr, &cleanupErr) {
		t.Errorf("CleanupErr = %v, want *domain.CleanupError", outcome.CleanupErr)
	}
}

func TestFetcher_EstimateAndKind(t *testing.T) {
	h := newHarness(t)
	zipHeader := "PK\x03\x04" + strings.Repeat("\x00", 60)
	h.remote.serve(fileURL, zipHeader)
	h.remote.delay = 2 * time.Millisecond

	outcome, err := h.fetcher.Fetch(context.Background(), fileURL, "/data/a.zip")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if outcome.Elapsed <= 0 {
		t.Fatalf("Elapsed = %v, want > 0", outcome.Elapsed)
	}
	if outcome.SpeedMBps <= 0 || outcome.AverageSpeedMBps != outcome.SpeedMBps {
		t.Errorf("speed = %v avg = %v", outcome.SpeedMBps, outcome.AverageSpeedMBps)
	}
	if outcome.Estimate == "" {
		t.Error("Estimate is empty, want HH:MM:SS")
	}
	if outcome.ContentKind != "zip" {
		t.Errorf("ContentKind = %q, want zip", outcome.ContentKind)
	}
	if !h.events.has(event.NameThroughputEstimated) {
		t.Errorf("events = %v, want %s", h.events.names, event.NameThroughputEstimated)
	}
}

func TestFetcher_ResetSpeeds(t *testing.T) {
	h := newHarness(t)
	h.remote.serve(fileURL, "x")

	h.fetcher.Fetch(context.Background(), fileURL, "/data/x")
	if h.fetcher.Speeds().Len() != 1 {
		t.Fatalf("speed samples = %d, want 1", h.fetcher.Speeds().Len())
	}

	h.fetcher.ResetSpeeds()
	if h.fetcher.Speeds().Len() != 0 {
		t.Errorf("speed samples after reset = %d, want 0", h.fetcher.Speeds().Len())
	}
}

func TestSpeedTracker(t *testing.T) {
	s := NewSpeedTracker()
	if s.Average() != 0 {
		t.Errorf("Average() of empty tracker = %v, want 0", s.Average())
	}

	s.Add(2.0)
	s.Add(4.0)
	if s.Average() != 3.0 {
		t.Errorf("Average() = %v, want 3.0", s.Average())
	}

	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}

	s.Reset()
	if s.Len() != 0 || s.Average() != 0 {
		t.Errorf("after Reset() Len = %d Average = %v", s.Len(), s.Average())
	}
}

func TestNew_Defaults(t *testing.T) {
	f := New(nil, newMockRemoteClient(), nil, nil, nil, zap.NewNop())
	if f.config.ChunkSize != 8192 {
		t.Errorf("ChunkSize = %d, want 8192", f.config.ChunkSize)
	}
	if f.config.ProgressInterval != 10*time.Second {
		t.Errorf("ProgressInterval = %v, want 10s", f.config.ProgressInterval)
	}
	if f.Speeds() == nil {
		t.Error("Speeds() = nil")
	}
}

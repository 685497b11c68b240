package fetcher

import (
	"context"
	"io"
	"time"

	"github.com/h2non/filetype"
	"go.uber.org/zap"

	"github.com/vertextoedge/index-mirror/internal/domain"
	"github.com/vertextoedge/index-mirror/internal/domain/event"
	"github.com/vertextoedge/index-mirror/internal/port"
	"github.com/vertextoedge/index-mirror/internal/util/ratelimiter"
	"github.com/vertextoedge/index-mirror/internal/util/throughput"
)

// sniffLen is how many leading bytes are kept for file type detection
const sniffLen = 262

// Config holds fetcher configuration
type Config struct {
	ChunkSize        int
	ProgressInterval time.Duration
}

// DefaultConfig returns default fetcher configuration
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:        8192,
		ProgressInterval: 10 * time.Second,
	}
}

// Fetcher downloads single files with a size-match skip and speed tracking
type Fetcher struct {
	config     *Config
	client     port.RemoteClient
	fs         port.FileSystem
	speeds     *SpeedTracker
	dispatcher event.EventDispatcher
	logger     *zap.Logger
}

// Ensure Fetcher implements port.Fetcher
var _ port.Fetcher = (*Fetcher)(nil)

// New creates a new Fetcher. A nil tracker gets a fresh one.
func New(cfg *Config, client port.RemoteClient, fs port.FileSystem, speeds *SpeedTracker, dispatcher event.EventDispatcher, logger *zap.Logger) *Fetcher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 8192
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = 10 * time.Second
	}
	if speeds == nil {
		speeds = NewSpeedTracker()
	}
	if dispatcher == nil {
		dispatcher = event.NewNullDispatcher()
	}

	return &Fetcher{
		config:     cfg,
		client:     client,
		fs:         fs,
		speeds:     speeds,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Speeds returns the tracker owned by this fetcher
func (f *Fetcher) Speeds() *SpeedTracker {
	return f.speeds
}

// ResetSpeeds clears the throughput samples
func (f *Fetcher) ResetSpeeds() {
	f.speeds.Reset()
}

// Fetch materializes url at localPath
func (f *Fetcher) Fetch(ctx context.Context, url, localPath string) (*domain.DownloadOutcome, error) {
	outcome := &domain.DownloadOutcome{
		URL:             url,
		LocalPath:       localPath,
		LocalSizeBefore: -1,
	}
	outcome.RemoteSize, outcome.ProbeErr = f.probeSize(ctx, url)

	localSize, exists, err := f.fs.Stat(localPath)
	if err != nil {
		f.logger.Warn("failed to stat local file, downloading anyway",
			zap.String("path", localPath),
			zap.Error(err))
	}

	if err == nil && exists {
		outcome.LocalSizeBefore = localSize
		if outcome.RemoteSizeKnown() && localSize == outcome.RemoteSize {
			outcome.Status = domain.OutcomeSkipped
			f.dispatcher.Dispatch(event.NewFileSkipped(localPath, localSize))
			return outcome, nil
		}
		f.dispatcher.Dispatch(event.NewFileRedownload(localPath, localSize, outcome.RemoteSize))
	}

	return f.transfer(ctx, outcome)
}

// probeSize asks the server for the body size. Failures downgrade the size
// to unknown and are returned for the outcome, never as a fetch failure.
func (f *Fetcher) probeSize(ctx context.Context, url string) (int64, error) {
	size, err := f.client.ContentLength(ctx, url)
	if err != nil {
		probeErr := domain.NewSizeProbeError(url, err)
		f.dispatcher.Dispatch(event.NewSizeProbeFailed(url, probeErr))
		return domain.UnknownSize, probeErr
	}
	return size, nil
}

// transfer streams the body to disk and post-processes a success
func (f *Fetcher) transfer(ctx context.Context, outcome *domain.DownloadOutcome) (*domain.DownloadOutcome, error) {
	if err := f.fs.EnsureParent(outcome.LocalPath); err != nil {
		return f.fail(outcome, err)
	}

	f.dispatcher.Dispatch(event.NewDownloadStarted(outcome.URL, outcome.LocalPath, outcome.RemoteSize))
	start := time.Now()

	body, err := f.client.Download(ctx, outcome.URL)
	if err != nil {
		return f.fail(outcome, err)
	}

	pr := &progressReader{
		reader:     body,
		url:        outcome.URL,
		remoteSize: outcome.RemoteSize,
		limiter:    ratelimiter.NewStarted(f.config.ProgressInterval),
		dispatcher: f.dispatcher,
	}

	written, err := f.fs.WriteFile(outcome.LocalPath, pr, f.config.ChunkSize)
	body.Close()
	if err != nil {
		return f.fail(outcome, err)
	}

	outcome.Elapsed = time.Since(start)

	// Size is read back from disk, not taken from the byte counter
	size, _, err := f.fs.Stat(outcome.LocalPath)
	if err != nil {
		f.logger.Warn("failed to stat written file",
			zap.String("path", outcome.LocalPath),
			zap.Error(err))
		size = written
	}

	outcome.Status = domain.OutcomeDownloaded
	outcome.BytesWritten = size
	outcome.ContentKind = sniffKind(pr.head)
	outcome.SpeedMBps = throughput.SpeedMBps(size, outcome.Elapsed)

	f.speeds.Add(outcome.SpeedMBps)
	outcome.AverageSpeedMBps = f.speeds.Average()

	f.dispatcher.Dispatch(event.NewDownloadCompleted(*outcome))

	if outcome.RemoteSizeKnown() {
		if est, ok := throughput.Estimate(outcome.RemoteSize, outcome.AverageSpeedMBps); ok {
			outcome.Estimate = est
			f.dispatcher.Dispatch(event.NewThroughputEstimated(outcome.AverageSpeedMBps, outcome.RemoteSize, est))
		}
	}

	return outcome, nil
}

// fail marks the outcome failed and removes whatever is at the local path
// so a later run never starts from a corrupt partial file
func (f *Fetcher) fail(outcome *domain.DownloadOutcome, cause error) (*domain.DownloadOutcome, error) {
	terr := domain.NewTransferError(outcome.URL, outcome.LocalPath, cause)
	outcome.Status = domain.OutcomeFailed
	outcome.Err = terr

	if err := f.fs.DeleteFile(outcome.LocalPath); err != nil {
		outcome.CleanupErr = domain.NewCleanupError(outcome.LocalPath, err)
	}

	f.dispatcher.Dispatch(event.NewDownloadFailed(outcome.URL, outcome.LocalPath, terr, outcome.CleanupErr))
	return outcome, terr
}

func sniffKind(head []byte) string {
	if len(head) == 0 {
		return ""
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.Extension
}

// progressReader counts streamed bytes, keeps the leading bytes for type
// sniffing and reports progress at most once per limiter interval
type progressReader struct {
	reader     io.Reader
	url        string
	remoteSize int64
	bytesRead  int64
	head       []byte
	limiter    *ratelimiter.Limiter
	dispatcher event.EventDispatcher
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.bytesRead += int64(n)

	if missing := sniffLen - len(r.head); missing > 0 && n > 0 {
		r.head = append(r.head, p[:min(n, missing)]...)
	}

	if ok, _ := r.limiter.Allow(); ok {
		r.dispatcher.Dispatch(event.NewDownloadProgress(r.url, r.bytesRead, r.remoteSize))
	}

	return n, err
}

package event

import (
	"go.uber.org/zap"

	"github.com/vertextoedge/index-mirror/internal/domain/vo"
)

// LoggingHandler renders mirror events as single-line log entries.
// Every entry carries an "event" tag for operators grepping the output.
type LoggingHandler struct {
	logger *zap.Logger
}

// NewLoggingHandler creates a new LoggingHandler
func NewLoggingHandler(logger *zap.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger}
}

// Handle logs the event
func (h *LoggingHandler) Handle(event DomainEvent) error {
	switch e := event.(type) {
	case MirrorStarted:
		h.logger.Info("mirror started",
			zap.String("event", "start"),
			zap.String("run_id", e.RunID),
			zap.String("base_url", e.BaseURL),
			zap.String("output_dir", e.OutputDir),
		)
	case ScanStarted:
		h.logger.Info("scanning listing",
			zap.String("event", "scan"),
			zap.String("url", e.URL),
		)
	case EntryDiscovered:
		h.logger.Debug("entry discovered",
			zap.String("event", "discovered"),
			zap.String("page", e.PageURL),
			zap.String("name", e.Entry.Name),
			zap.Bool("dir", e.Entry.IsDir()),
		)
	case DiscoveryFailed:
		h.logger.Error("failed to access listing",
			zap.String("event", "error"),
			zap.String("url", e.URL),
			zap.Error(e.Err),
		)
	case DirectoryEntered:
		h.logger.Info("entering directory",
			zap.String("event", "enter_dir"),
			zap.String("url", e.URL),
			zap.String("path", e.RelativePath),
			zap.Int("depth", e.Depth),
		)
	case DirectorySkipped:
		h.logger.Warn("max depth reached, not descending",
			zap.String("event", "skip_dir"),
			zap.String("url", e.URL),
			zap.String("path", e.RelativePath),
			zap.Int("depth", e.Depth),
			zap.Int("max_depth", e.MaxDepth),
		)
	case FileFound:
		h.logger.Info("found file",
			zap.String("event", "found_file"),
			zap.String("name", e.Name),
			zap.String("local_path", e.LocalPath),
		)
	case SizeProbeFailed:
		h.logger.Warn("could not get remote size",
			zap.String("event", "error"),
			zap.String("url", e.URL),
			zap.Error(e.Err),
		)
	case FileSkipped:
		h.logger.Info("already downloaded (size matches)",
			zap.String("event", "skip"),
			zap.String("local_path", e.LocalPath),
			zap.String("size", vo.HumanBytes(e.Size)),
		)
	case FileRedownload:
		h.logger.Info("re-downloading (size mismatch or incomplete)",
			zap.String("event", "redownload"),
			zap.String("local_path", e.LocalPath),
			zap.Int64("local_size", e.LocalSize),
			zap.Int64("remote_size", e.RemoteSize),
		)
	case DownloadStarted:
		h.logger.Info("downloading",
			zap.String("event", "download_start"),
			zap.String("url", e.URL),
			zap.String("remote_size", vo.HumanBytes(e.RemoteSize)),
		)
	case DownloadProgress:
		h.logger.Debug("download progress",
			zap.String("event", "progress"),
			zap.String("url", e.URL),
			zap.String("written", vo.HumanBytes(e.BytesWritten)),
			zap.String("remote_size", vo.HumanBytes(e.RemoteSize)),
		)
	case DownloadCompleted:
		o := e.Outcome
		h.logger.Info("download done",
			zap.String("event", "download_done"),
			zap.String("local_path", o.LocalPath),
			zap.String("size", vo.HumanBytes(o.BytesWritten)),
			zap.Duration("elapsed", o.Elapsed),
			zap.Float64("speed_mbps", round2(o.SpeedMBps)),
			zap.String("kind", o.ContentKind),
		)
	case ThroughputEstimated:
		h.logger.Info("throughput estimate",
			zap.String("event", "estimate"),
			zap.Float64("avg_speed_mbps", round2(e.AverageSpeedMBps)),
			zap.String("est_for_similar", e.Estimate),
		)
	case DownloadFailed:
		fields := []zap.Field{
			zap.String("event", "error"),
			zap.String("url", e.URL),
			zap.String("local_path", e.LocalPath),
			zap.Error(e.Err),
		}
		if e.CleanupErr != nil {
			fields = append(fields, zap.NamedError("cleanup_error", e.CleanupErr))
		}
		h.logger.Error("download failed", fields...)
	case MirrorCompleted:
		s := e.Summary
		fields := []zap.Field{
			zap.String("event", "done"),
			zap.String("run_id", s.RunID),
			zap.Duration("duration", s.Duration()),
			zap.Int("dirs_scanned", s.DirectoriesScanned),
			zap.Int("dirs_failed", s.DiscoveryFailures),
			zap.Int("dirs_skipped", s.DirectoriesSkipped),
			zap.Int("files", s.TotalFiles()),
			zap.Int("downloaded", s.FilesDownloaded),
			zap.Int("skipped", s.FilesSkipped),
			zap.Int("failed", s.FilesFailed),
			zap.String("bytes", vo.HumanBytes(s.BytesWritten)),
		}
		if e.Err != nil {
			h.logger.Warn("mirror interrupted", append(fields, zap.Error(e.Err))...)
		} else {
			h.logger.Info("mirror completed", fields...)
		}
	default:
		h.logger.Debug("domain event",
			zap.String("event", event.EventName()),
			zap.Time("occurred_at", event.OccurredAt()),
		)
	}
	return nil
}

// HandledEvents returns the events this handler handles
func (h *LoggingHandler) HandledEvents() []string {
	return []string{"*"} // Handle all events
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

package mirror

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vertextoedge/index-mirror/internal/domain"
	"github.com/vertextoedge/index-mirror/internal/domain/event"
	"github.com/vertextoedge/index-mirror/internal/domain/vo"
	"github.com/vertextoedge/index-mirror/internal/port"
)

// Config contains orchestrator configuration
type Config struct {
	// MaxDepth bounds how many directory levels below the root are entered.
	// Zero means unbounded.
	MaxDepth int
}

// DefaultConfig returns default orchestrator configuration
func DefaultConfig() *Config {
	return &Config{}
}

// Orchestrator walks a remote listing tree depth-first and mirrors every
// file it finds under the filesystem root
type Orchestrator struct {
	config     *Config
	discoverer port.Discoverer
	fetcher    port.Fetcher
	fs         port.FileSystem
	journal    port.RunJournal
	dispatcher event.EventDispatcher
	logger     *zap.Logger
	newRunID   func() string
}

// New creates a new Orchestrator. journal may be nil.
func New(cfg *Config, discoverer port.Discoverer, fetcher port.Fetcher, fs port.FileSystem, journal port.RunJournal, dispatcher event.EventDispatcher, logger *zap.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if dispatcher == nil {
		dispatcher = event.NewNullDispatcher()
	}

	return &Orchestrator{
		config:     cfg,
		discoverer: discoverer,
		fetcher:    fetcher,
		fs:         fs,
		journal:    journal,
		dispatcher: dispatcher,
		logger:     logger,
		newRunID:   uuid.NewString,
	}
}

// frame is one directory on the walk stack
type frame struct {
	url     string
	relPath vo.RelativePath
	entries []domain.DirectoryEntry
	cursor  int
}

// Mirror walks rootURL and returns the run summary. The summary is returned
// even when the walk is interrupted by ctx, together with ctx.Err().
func (o *Orchestrator) Mirror(ctx context.Context, rootURL string) (*domain.RunSummary, error) {
	o.fetcher.ResetSpeeds()

	summary := &domain.RunSummary{
		RunID:     o.newRunID(),
		BaseURL:   rootURL,
		OutputDir: o.fs.RootDir(),
		StartedAt: time.Now(),
	}
	log := o.logger.With(zap.String("run_id", summary.RunID))

	if o.journal != nil {
		if err := o.journal.StartRun(summary); err != nil {
			log.Warn("failed to journal run start", zap.Error(err))
		}
	}

	o.dispatcher.Dispatch(event.NewMirrorStarted(summary.RunID, rootURL, summary.OutputDir))

	err := o.walk(ctx, rootURL, summary, log)

	summary.Finish()

	if o.journal != nil {
		status := domain.RunStatusCompleted
		if err != nil {
			status = domain.RunStatusAborted
		}
		if jerr := o.journal.FinishRun(summary, status); jerr != nil {
			log.Warn("failed to journal run completion", zap.Error(jerr))
		}
	}

	o.dispatcher.Dispatch(event.NewMirrorCompleted(*summary, err))
	return summary, err
}

// walk runs the frame stack. A child frame is pushed when a directory entry
// is reached and is drained before its parent's cursor moves on.
func (o *Orchestrator) walk(ctx context.Context, rootURL string, summary *domain.RunSummary, log *zap.Logger) error {
	root, err := o.open(ctx, rootURL, vo.NewRelativePath(""), summary)
	if err != nil {
		return err
	}
	stack := []*frame{root}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		top := stack[len(stack)-1]
		if top.cursor >= len(top.entries) {
			stack = stack[:len(stack)-1]
			continue
		}

		entry := top.entries[top.cursor]
		top.cursor++

		if !entry.IsDir() {
			o.mirrorFile(ctx, top, entry, summary, log)
			continue
		}

		childPath := top.relPath.Join(entry.Name)
		childDepth := childPath.Depth()

		if o.config.MaxDepth > 0 && childDepth > o.config.MaxDepth {
			summary.DirectoriesSkipped++
			o.dispatcher.Dispatch(event.NewDirectorySkipped(entry.URL, childPath.String(), childDepth, o.config.MaxDepth))
			continue
		}

		o.dispatcher.Dispatch(event.NewDirectoryEntered(entry.URL, childPath.String(), childDepth))

		child, err := o.open(ctx, entry.URL, childPath, summary)
		if err != nil {
			return err
		}
		stack = append(stack, child)
	}

	return nil
}

// open discovers the entries of a directory. A discovery failure yields an
// empty frame; only cancellation is returned as an error.
func (o *Orchestrator) open(ctx context.Context, url string, relPath vo.RelativePath, summary *domain.RunSummary) (*frame, error) {
	f := &frame{url: url, relPath: relPath}

	entries, err := o.discoverer.Discover(ctx, url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		summary.DiscoveryFailures++
		o.dispatcher.Dispatch(event.NewDiscoveryFailed(url, err))
		return f, nil
	}

	summary.DirectoriesScanned++
	f.entries = entries
	return f, nil
}

func (o *Orchestrator) mirrorFile(ctx context.Context, parent *frame, entry domain.DirectoryEntry, summary *domain.RunSummary, log *zap.Logger) {
	localDir := parent.relPath.Local(o.fs.RootDir())
	localPath := filepath.Join(localDir, entry.BaseName())

	o.dispatcher.Dispatch(event.NewFileFound(entry.Name, entry.URL, localPath))

	var outcome *domain.DownloadOutcome
	if err := o.fs.EnsureDir(localDir); err != nil {
		log.Error("failed to create local directory",
			zap.String("dir", localDir),
			zap.Error(err))
		outcome = &domain.DownloadOutcome{
			URL:        entry.URL,
			LocalPath:  localPath,
			Status:     domain.OutcomeFailed,
			RemoteSize: domain.UnknownSize,
			Err:        domain.NewTransferError(entry.URL, localPath, err),
		}
	} else {
		// The error is carried on the outcome and already dispatched
		outcome, _ = o.fetcher.Fetch(ctx, entry.URL, localPath)
	}

	summary.Record(outcome)

	if o.journal != nil {
		if err := o.journal.RecordOutcome(summary.RunID, outcome); err != nil {
			log.Warn("failed to journal file outcome",
				zap.String("path", localPath),
				zap.Error(err))
		}
	}
}

package event

import (
	"time"

	"github.com/vertextoedge/index-mirror/internal/domain"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	// EventName returns the name of the event
	EventName() string
	// OccurredAt returns when the event occurred
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func now() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Event names
const (
	NameMirrorStarted       = "mirror.started"
	NameMirrorCompleted     = "mirror.completed"
	NameScanStarted         = "listing.scan"
	NameEntryDiscovered     = "listing.discovered"
	NameDiscoveryFailed     = "listing.failed"
	NameDirectoryEntered    = "walk.enter_dir"
	NameDirectorySkipped    = "walk.skip_dir"
	NameFileFound           = "walk.found_file"
	NameSizeProbeFailed     = "download.probe_failed"
	NameFileSkipped         = "download.skip"
	NameFileRedownload      = "download.redownload"
	NameDownloadStarted     = "download.start"
	NameDownloadProgress    = "download.progress"
	NameDownloadCompleted   = "download.done"
	NameThroughputEstimated = "download.estimate"
	NameDownloadFailed      = "download.failed"
)

// MirrorStarted is raised once at the start of a run
type MirrorStarted struct {
	BaseEvent
	RunID     string
	BaseURL   string
	OutputDir string
}

// EventName returns the event name
func (e MirrorStarted) EventName() string { return NameMirrorStarted }

// NewMirrorStarted creates a new MirrorStarted event
func NewMirrorStarted(runID, baseURL, outputDir string) MirrorStarted {
	return MirrorStarted{BaseEvent: now(), RunID: runID, BaseURL: baseURL, OutputDir: outputDir}
}

// MirrorCompleted is raised when the walk finishes or is interrupted
type MirrorCompleted struct {
	BaseEvent
	Summary domain.RunSummary
	Err     error
}

// EventName returns the event name
func (e MirrorCompleted) EventName() string { return NameMirrorCompleted }

// NewMirrorCompleted creates a new MirrorCompleted event
func NewMirrorCompleted(summary domain.RunSummary, err error) MirrorCompleted {
	return MirrorCompleted{BaseEvent: now(), Summary: summary, Err: err}
}

// ScanStarted is raised before a listing page is requested
type ScanStarted struct {
	BaseEvent
	URL string
}

// EventName returns the event name
func (e ScanStarted) EventName() string { return NameScanStarted }

// NewScanStarted creates a new ScanStarted event
func NewScanStarted(url string) ScanStarted {
	return ScanStarted{BaseEvent: now(), URL: url}
}

// EntryDiscovered is raised for every entry kept from a listing page
type EntryDiscovered struct {
	BaseEvent
	PageURL string
	Entry   domain.DirectoryEntry
}

// EventName returns the event name
func (e EntryDiscovered) EventName() string { return NameEntryDiscovered }

// NewEntryDiscovered creates a new EntryDiscovered event
func NewEntryDiscovered(pageURL string, entry domain.DirectoryEntry) EntryDiscovered {
	return EntryDiscovered{BaseEvent: now(), PageURL: pageURL, Entry: entry}
}

// DiscoveryFailed is raised when a listing page could not be fetched
type DiscoveryFailed struct {
	BaseEvent
	URL string
	Err error
}

// EventName returns the event name
func (e DiscoveryFailed) EventName() string { return NameDiscoveryFailed }

// NewDiscoveryFailed creates a new DiscoveryFailed event
func NewDiscoveryFailed(url string, err error) DiscoveryFailed {
	return DiscoveryFailed{BaseEvent: now(), URL: url, Err: err}
}

// DirectoryEntered is raised when the walk descends into a sub-directory
type DirectoryEntered struct {
	BaseEvent
	URL          string
	RelativePath string
	Depth        int
}

// EventName returns the event name
func (e DirectoryEntered) EventName() string { return NameDirectoryEntered }

// NewDirectoryEntered creates a new DirectoryEntered event
func NewDirectoryEntered(url, relPath string, depth int) DirectoryEntered {
	return DirectoryEntered{BaseEvent: now(), URL: url, RelativePath: relPath, Depth: depth}
}

// DirectorySkipped is raised when the depth guard refuses to descend
type DirectorySkipped struct {
	BaseEvent
	URL          string
	RelativePath string
	Depth        int
	MaxDepth     int
}

// EventName returns the event name
func (e DirectorySkipped) EventName() string { return NameDirectorySkipped }

// NewDirectorySkipped creates a new DirectorySkipped event
func NewDirectorySkipped(url, relPath string, depth, maxDepth int) DirectorySkipped {
	return DirectorySkipped{BaseEvent: now(), URL: url, RelativePath: relPath, Depth: depth, MaxDepth: maxDepth}
}

// FileFound is raised when the walk reaches a file entry
type FileFound struct {
	BaseEvent
	Name      string
	URL       string
	LocalPath string
}

// EventName returns the event name
func (e FileFound) EventName() string { return NameFileFound }

// NewFileFound creates a new FileFound event
func NewFileFound(name, url, localPath string) FileFound {
	return FileFound{BaseEvent: now(), Name: name, URL: url, LocalPath: localPath}
}

// SizeProbeFailed is raised when the HEAD probe could not report a size
type SizeProbeFailed struct {
	BaseEvent
	URL string
	Err error
}

// EventName returns the event name
func (e SizeProbeFailed) EventName() string { return NameSizeProbeFailed }

// NewSizeProbeFailed creates a new SizeProbeFailed event
func NewSizeProbeFailed(url string, err error) SizeProbeFailed {
	return SizeProbeFailed{BaseEvent: now(), URL: url, Err: err}
}

// FileSkipped is raised when a local copy already matches the remote size
type FileSkipped struct {
	BaseEvent
	LocalPath string
	Size      int64
}

// EventName returns the event name
func (e FileSkipped) EventName() string { return NameFileSkipped }

// NewFileSkipped creates a new FileSkipped event
func NewFileSkipped(localPath string, size int64) FileSkipped {
	return FileSkipped{BaseEvent: now(), LocalPath: localPath, Size: size}
}

// FileRedownload is raised when an existing local file will be overwritten
type FileRedownload struct {
	BaseEvent
	LocalPath  string
	LocalSize  int64
	RemoteSize int64
}

// EventName returns the event name
func (e FileRedownload) EventName() string { return NameFileRedownload }

// NewFileRedownload creates a new FileRedownload event
func NewFileRedownload(localPath string, localSize, remoteSize int64) FileRedownload {
	return FileRedownload{BaseEvent: now(), LocalPath: localPath, LocalSize: localSize, RemoteSize: remoteSize}
}

// DownloadStarted is raised before the body GET
type DownloadStarted struct {
	BaseEvent
	URL        string
	LocalPath  string
	RemoteSize int64
}

// EventName returns the event name
func (e DownloadStarted) EventName() string { return NameDownloadStarted }

// NewDownloadStarted creates a new DownloadStarted event
func NewDownloadStarted(url, localPath string, remoteSize int64) DownloadStarted {
	return DownloadStarted{BaseEvent: now(), URL: url, LocalPath: localPath, RemoteSize: remoteSize}
}

// DownloadProgress is raised periodically while a body is streamed
type DownloadProgress struct {
	BaseEvent
	URL          string
	BytesWritten int64
	RemoteSize   int64
}

// EventName returns the event name
func (e DownloadProgress) EventName() string { return NameDownloadProgress }

// NewDownloadProgress creates a new DownloadProgress event
func NewDownloadProgress(url string, written, remoteSize int64) DownloadProgress {
	return DownloadProgress{BaseEvent: now(), URL: url, BytesWritten: written, RemoteSize: remoteSize}
}

// DownloadCompleted is raised after a successful transfer
type DownloadCompleted struct {
	BaseEvent
	Outcome domain.DownloadOutcome
}

// EventName returns the event name
func (e DownloadCompleted) EventName() string { return NameDownloadCompleted }

// NewDownloadCompleted creates a new DownloadCompleted event
func NewDownloadCompleted(outcome domain.DownloadOutcome) DownloadCompleted {
	return DownloadCompleted{BaseEvent: now(), Outcome: outcome}
}

// ThroughputEstimated is raised when an ETA for a similar file is available
type ThroughputEstimated struct {
	BaseEvent
	AverageSpeedMBps float64
	RemoteSize       int64
	Estimate         string
}

// EventName returns the event name
func (e ThroughputEstimated) EventName() string { return NameThroughputEstimated }

// NewThroughputEstimated creates a new ThroughputEstimated event
func NewThroughputEstimated(avg float64, remoteSize int64, estimate string) ThroughputEstimated {
	return ThroughputEstimated{BaseEvent: now(), AverageSpeedMBps: avg, RemoteSize: remoteSize, Estimate: estimate}
}

// DownloadFailed is raised when a transfer fails
type DownloadFailed struct {
	BaseEvent
	URL        string
	LocalPath  string
	Err        error
	CleanupErr error
}

// EventName returns the event name
func (e DownloadFailed) EventName() string { return NameDownloadFailed }

// NewDownloadFailed creates a new DownloadFailed event
func NewDownloadFailed(url, localPath string, err, cleanupErr error) DownloadFailed {
	return DownloadFailed{BaseEvent: now(), URL: url, LocalPath: localPath, Err: err, CleanupErr: cleanupErr}
}

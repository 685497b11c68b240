package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/vertextoedge/index-mirror/internal/port"
)

// DefaultChunkSize is the transfer buffer size when none is configured
const DefaultChunkSize = 8192

// Manager handles local filesystem operations below the mirror root
type Manager struct {
	fs      afero.Fs
	rootDir string
}

// Ensure Manager implements port.FileSystem
var _ port.FileSystem = (*Manager)(nil)

// NewManager creates a filesystem manager on the OS filesystem
func NewManager(rootDir string) (*Manager, error) {
	return NewManagerWithFs(afero.NewOsFs(), rootDir)
}

// NewManagerWithFs creates a filesystem manager on the given afero.Fs.
// The root directory is created up front; failure here aborts the run.
func NewManagerWithFs(fs afero.Fs, rootDir string) (*Manager, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("mirror root dir is empty")
	}

	if err := fs.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create mirror root dir: %w", err)
	}

	return &Manager{
		fs:      fs,
		rootDir: rootDir,
	}, nil
}

// RootDir returns the mirror root directory
func (m *Manager) RootDir() string {
	return m.rootDir
}

// EnsureDir creates a directory and its parents
func (m *Manager) EnsureDir(dir string) error {
	if err := m.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create dir %s: %w", dir, err)
	}
	return nil
}

// EnsureParent ensures the directory for a file path exists
func (m *Manager) EnsureParent(filePath string) error {
	return m.EnsureDir(filepath.Dir(filePath))
}

// Stat returns the size of a file and whether it exists
func (m *Manager) Stat(filePath string) (int64, bool, error) {
	info, err := m.fs.Stat(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if info.IsDir() {
		return 0, true, fmt.Errorf("%s is a directory", filePath)
	}
	return info.Size(), true, nil
}

// WriteFile streams reader into filePath chunk by chunk, truncating any
// existing content. The file is closed before returning; a close failure
// is reported as a write failure.
func (m *Manager) WriteFile(filePath string, reader io.Reader, chunkSize int) (int64, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	f, err := m.fs.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	buf := make([]byte, chunkSize)
	var written int64

	for {
		n, readErr := reader.Read(buf)
		if n > 0 {
			w, writeErr := f.Write(buf[:n])
			written += int64(w)
			if writeErr != nil {
				f.Close()
				return written, fmt.Errorf("failed to write file: %w", writeErr)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			f.Close()
			return written, fmt.Errorf("failed to read body: %w", readErr)
		}
	}

	if err := f.Close(); err != nil {
		return written, fmt.Errorf("failed to close file: %w", err)
	}

	return written, nil
}

// DeleteFile removes a file
func (m *Manager) DeleteFile(filePath string) error {
	if err := m.fs.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

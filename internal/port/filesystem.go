package port

import (
	"io"
)

// FileSystem defines the interface for local mirror tree operations
type FileSystem interface {
	// RootDir returns the mirror root directory
	RootDir() string

	// EnsureDir creates a directory and its parents
	EnsureDir(dir string) error

	// EnsureParent creates the parent directories of a file path
	EnsureParent(filePath string) error

	// Stat returns the size of a regular file and whether it exists
	Stat(filePath string) (size int64, exists bool, err error)

	// WriteFile streams reader into filePath using chunkSize buffers,
	// truncating any existing file.
	// Returns: bytes copied, error
	WriteFile(filePath string, reader io.Reader, chunkSize int) (int64, error)

	// DeleteFile removes a file; a missing file is not an error
	DeleteFile(filePath string) error
}

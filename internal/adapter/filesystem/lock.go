package filesystem

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created in the mirror root while a run is active
const LockFileName = ".index-mirror.lock"

// RunLock is an advisory lock that keeps two runs from writing the same tree
type RunLock struct {
	lock *flock.Flock
}

// AcquireRunLock takes the lock on rootDir without blocking
func AcquireRunLock(rootDir string) (*RunLock, error) {
	path := filepath.Join(rootDir, LockFileName)
	lock := flock.New(path)

	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("another run holds %s", path)
	}

	return &RunLock{lock: lock}, nil
}

// Path returns the lock file path
func (l *RunLock) Path() string {
	return l.lock.Path()
}

// Release unlocks the tree
func (l *RunLock) Release() error {
	return l.lock.Unlock()
}

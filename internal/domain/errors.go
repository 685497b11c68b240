package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnknownSize      = errors.New("remote size unknown")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrRunNotFound      = errors.New("run not found")
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Code int
}

// Error returns the error message
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUnexpectedStatus.Error(), e.Code)
}

// Is matches ErrUnexpectedStatus
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// DiscoveryError is returned when a listing page cannot be fetched.
// The directory is treated as empty and the walk continues.
type DiscoveryError struct {
	URL string
	Err error
}

// Error returns the error message
func (e *DiscoveryError) Error() string {
	return "discover " + e.URL + ": " + errString(e.Err)
}

// Unwrap returns the underlying error
func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// NewDiscoveryError creates a new discovery error
func NewDiscoveryError(url string, err error) *DiscoveryError {
	return &DiscoveryError{URL: url, Err: err}
}

// IsDiscovery returns true if err is a discovery failure
func IsDiscovery(err error) bool {
	var de *DiscoveryError
	return errors.As(err, &de)
}

// SizeProbeError is recorded when the HEAD probe fails. It downgrades the
// remote size to unknown and never blocks the transfer.
type SizeProbeError struct {
	URL string
	Err error
}

// Error returns the error message
func (e *SizeProbeError) Error() string {
	return "probe size " + e.URL + ": " + errString(e.Err)
}

// Unwrap returns the underlying error
func (e *SizeProbeError) Unwrap() error {
	return e.Err
}

// NewSizeProbeError creates a new size probe error
func NewSizeProbeError(url string, err error) *SizeProbeError {
	return &SizeProbeError{URL: url, Err: err}
}

// TransferError is returned when the body GET or the local write fails.
type TransferError struct {
	URL  string
	Path string
	Err  error
}

// Error returns the error message
func (e *TransferError) Error() string {
	return "transfer " + e.URL + " -> " + e.Path + ": " + errString(e.Err)
}

// Unwrap returns the underlying error
func (e *TransferError) Unwrap() error {
	return e.Err
}

// NewTransferError creates a new transfer error
func NewTransferError(url, path string, err error) *TransferError {
	return &TransferError{URL: url, Path: path, Err: err}
}

// IsTransfer returns true if err is a transfer failure
func IsTransfer(err error) bool {
	var te *TransferError
	return errors.As(err, &te)
}

// CleanupError is recorded when a partial file could not be removed after
// a failed transfer. It never changes the failed outcome.
type CleanupError struct {
	Path string
	Err  error
}

// Error returns the error message
func (e *CleanupError) Error() string {
	return "remove partial file " + e.Path + ": " + errString(e.Err)
}

// Unwrap returns the underlying error
func (e *CleanupError) Unwrap() error {
	return e.Err
}

// NewCleanupError creates a new cleanup error
func NewCleanupError(path string, err error) *CleanupError {
	return &CleanupError{Path: path, Err: err}
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

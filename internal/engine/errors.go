package engine

import (
	"errors"
	"fmt"
)

// DownloadError is implemented by every error that aborts a host batch.
type DownloadError interface {
	error
	FilePath() string
	HostName() string
}

// LocalReadError reports an existing local file that could not be hashed.
// It is fatal: no download is attempted for the pass.
type LocalReadError struct {
	Path string
	Err  error
}

func (e *LocalReadError) Error() string {
	return fmt.Sprintf("read local %s: %v", e.Path, e.Err)
}

func (e *LocalReadError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx response for a file.
type StatusError struct {
	Host       string
	Path       string
	RemotePath string
	Code       int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("download %s from %s: HTTP %d for %s", e.Path, e.Host, e.Code, e.RemotePath)
}

func (e *StatusError) FilePath() string { return e.Path }
func (e *StatusError) HostName() string { return e.Host }

// DigestMismatchError reports downloaded content that failed verification.
// The bad copy stays on disk; the next pass re-hashes and re-downloads it.
type DigestMismatchError struct {
	Host     string
	Path     string
	Expected string
	Actual   string
}

func (e *DigestMismatchError) Error() string {
	return fmt.Sprintf("download %s from %s: digest mismatch (expected %s, got %s)",
		e.Path, e.Host, e.Expected, e.Actual)
}

func (e *DigestMismatchError) FilePath() string { return e.Path }
func (e *DigestMismatchError) HostName() string { return e.Host }

// TransportError reports a request or mid-stream connection failure.
type TransportError struct {
	Host string
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("download %s from %s: %v", e.Path, e.Host, e.Err)
}

func (e *TransportError) Unwrap() error    { return e.Err }
func (e *TransportError) FilePath() string { return e.Path }
func (e *TransportError) HostName() string { return e.Host }

// LocalWriteError reports a failure creating or writing the destination
// file. It aborts the batch like any other per-file failure.
type LocalWriteError struct {
	Host      string
	Path      string
	LocalPath string
	Err       error
}

func (e *LocalWriteError) Error() string {
	return fmt.Sprintf("write %s (from %s): %v", e.LocalPath, e.Host, e.Err)
}

func (e *LocalWriteError) Unwrap() error    { return e.Err }
func (e *LocalWriteError) FilePath() string { return e.Path }
func (e *LocalWriteError) HostName() string { return e.Host }

// Warning is an advisory failure that does not fail the pass.
type Warning struct {
	Path string
	Err  error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %v", w.Path, w.Err)
}

// failedAt extracts the offending path and host from a batch error.
func failedAt(err error) (path, host string) {
	var de DownloadError
	if errors.As(err, &de) {
		return de.FilePath(), de.HostName()
	}
	return "", ""
}

package hashfile

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is returned for an input of the wrong shape. Nothing
	// is mutated when it is returned.
	ErrInvalidParameter = errors.New("invalid_parameter")

	// ErrNotReady is returned by Start while another batch is in flight on
	// the same Hasher.
	ErrNotReady = errors.New("not_ready")

	ErrNoViableBackend           = errors.New("no_viable_hash_method")
	ErrFileTooLargeWithoutWorker = errors.New("file_too_big_to_be_hashed_without_worker")
	ErrNotASha256Hash            = errors.New("parameter_string_not_a_sha256_hash")

	// ErrWorkerUnavailable means the host cannot start worker goroutines.
	ErrWorkerUnavailable = errors.New("worker unavailable")

	// ErrWorkerTerminated means the worker stopped replying before the job
	// reached a terminal message.
	ErrWorkerTerminated = errors.New("worker terminated")
)

// FileError attributes a per-file failure to the file and the backend that
// was hashing it.
type FileError struct {
	File    File
	Backend Backend
	Err     error
}

func (e *FileError) Error() string {
	if e.Backend == BackendNone {
		return fmt.Sprintf("%s: %v", e.File.Name(), e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.File.Name(), e.Backend, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// WorkerError is an error reported by a worker through an {error} reply.
type WorkerError struct {
	Message string
}

func (e *WorkerError) Error() string { return "worker: " + e.Message }

// IsNotReady reports whether err is (or wraps) ErrNotReady.
func IsNotReady(err error) bool {
	return errors.Is(err, ErrNotReady)
}

// IsFileTooLarge reports whether err is (or wraps) ErrFileTooLargeWithoutWorker.
func IsFileTooLarge(err error) bool {
	return errors.Is(err, ErrFileTooLargeWithoutWorker)
}

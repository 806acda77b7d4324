package hashfile

import (
	"fmt"
)

// Backend is one of the hashing strategies.
type Backend int

const (
	BackendNone Backend = iota
	BackendNative
	BackendWorker
	BackendIncremental
)

var backendNames = [...]string{
	"none",
	"native",
	"worker",
	"incremental",
}

func (b Backend) String() string {
	if b < 0 || int(b) >= len(backendNames) {
		return fmt.Sprintf("Backend(%d)", int(b))
	}
	return backendNames[b]
}

const (
	// NativeMax bounds the whole-buffer path; larger files would be held in
	// memory in one piece.
	NativeMax = 500_000_000

	// IncrementalMax bounds the path that runs on the caller's goroutine.
	IncrementalMax = 50_000_000
)

// Limits are the size thresholds used by selection and by the incremental
// backend.
type Limits struct {
	NativeMax      int64
	IncrementalMax int64
}

func DefaultLimits() Limits {
	return Limits{NativeMax: NativeMax, IncrementalMax: IncrementalMax}
}

// Select picks the backend for a file of the given size. The order is fixed:
// native below NativeMax, then the worker, then the incremental hasher. The
// incremental backend enforces its own ceiling when it runs.
func Select(size int64, caps Snapshot, limits Limits) (Backend, error) {
	switch {
	case caps.Native && size < limits.NativeMax:
		return BackendNative, nil
	case caps.WorkerSyncRead:
		return BackendWorker, nil
	case caps.Incremental:
		return BackendIncremental, nil
	default:
		return BackendNone, ErrNoViableBackend
	}
}

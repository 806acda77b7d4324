package hashfile

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whtech/woleet-weblibs/internal/logging"
)

const emptyDigest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func expectedDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func sampleData(n int) []byte {
	return bytes.Repeat([]byte("woleet-hashfile:"), n)
}

// forced returns Hasher options that leave exactly one backend viable.
func forced(t *testing.T, b Backend) []Option {
	t.Helper()
	logger, _ := logging.NewTestLogger(t)
	switch b {
	case BackendNative:
		return []Option{
			WithHost(&Host{Secure: true, Digest: SIMDDigest, ChunkSize: 7}),
			WithCapabilities(StaticCapabilities(Snapshot{Native: true})),
			WithLogger(logger),
		}
	case BackendWorker:
		return []Option{
			WithHost(&Host{Threads: true, WorkerSyncRead: true, ChunkSize: 7}),
			WithCapabilities(StaticCapabilities(Snapshot{WorkerSyncRead: true})),
			WithLogger(logger),
		}
	case BackendIncremental:
		return []Option{
			WithHost(&Host{Software: true, ChunkSize: 7}),
			WithCapabilities(StaticCapabilities(Snapshot{Incremental: true})),
			WithLogger(logger),
		}
	}
	t.Fatalf("no options for backend %s", b)
	return nil
}

// recorder captures every event delivered to a Hasher.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func record(t *testing.T, h *Hasher) *recorder {
	t.Helper()
	r := &recorder{}
	for k := EventStart; k < numEventKinds; k++ {
		require.NoError(t, h.On(k, r.add))
	}
	return r
}

func (r *recorder) add(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) forFile(f File) []Event {
	var out []Event
	for _, e := range r.all() {
		if e.File == f {
			out = append(out, e)
		}
	}
	return out
}

// requireWellFormed checks one file's event stream: a single start before
// anything else, non-decreasing progress within [0,1], and a single terminal
// event last.
func requireWellFormed(t *testing.T, events []Event) {
	t.Helper()
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	require.Contains(t, []EventKind{EventResult, EventError}, last.Kind)

	starts := 0
	prev := 0.0
	for i, e := range events[:len(events)-1] {
		switch e.Kind {
		case EventStart:
			require.Equal(t, 0, i, "start must come first")
			starts++
		case EventProgress:
			require.GreaterOrEqual(t, e.Progress, prev)
			require.LessOrEqual(t, e.Progress, 1.0)
			prev = e.Progress
		default:
			t.Fatalf("terminal event %s before the end", e.Kind)
		}
	}
	if last.Kind == EventResult {
		require.Equal(t, 1, starts, "a result needs exactly one start")
	}
}

// blockingFile holds Open until release is closed.
type blockingFile struct {
	File
	release chan struct{}
}

func (f *blockingFile) Open() (io.ReadCloser, error) {
	<-f.release
	return f.File.Open()
}

// sizedFile announces a size but cannot be read.
type sizedFile struct {
	name string
	size int64
}

func (f *sizedFile) Name() string { return f.name }
func (f *sizedFile) Size() int64  { return f.size }
func (f *sizedFile) Open() (io.ReadCloser, error) {
	return nil, errors.New("sizedFile cannot be opened")
}

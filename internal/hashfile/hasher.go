package hashfile

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	humanize "github.com/dustin/go-humanize"
)

// JobState is the lifecycle of one file inside a batch.
type JobState int

const (
	JobPending JobState = iota
	JobRunning
	JobDone
	JobFailed
)

var jobStates = [...]string{
	"PENDING",
	"RUNNING",
	"DONE",
	"FAILED",
}

func (s JobState) String() string {
	if s < 0 || int(s) >= len(jobStates) {
		return fmt.Sprintf("JobState(%d)", int(s))
	}
	return jobStates[s]
}

// JobResult is the settled outcome of one file.
type JobResult struct {
	File    File
	Backend Backend
	State   JobState
	Digest  string
	Err     error
}

// Hasher hashes batches of files one file at a time. One Hasher runs one
// batch at a time; independent concurrent batches need separate Hashers.
type Hasher struct {
	ready atomic.Bool

	mu        sync.RWMutex
	callbacks [numEventKinds]Callback

	host   *Host
	caps   *Capabilities
	limits Limits
	logger *slog.Logger
}

type Option func(*Hasher)

// WithHost sets the runtime description. Unless WithCapabilities is also
// given, the host is probed when the Hasher is created.
func WithHost(host *Host) Option {
	return func(h *Hasher) { h.host = host }
}

func WithCapabilities(caps *Capabilities) Option {
	return func(h *Hasher) { h.caps = caps }
}

func WithLimits(limits Limits) Option {
	return func(h *Hasher) { h.limits = limits }
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Hasher) { h.logger = logger }
}

func NewHasher(opts ...Option) *Hasher {
	h := &Hasher{limits: DefaultLimits()}
	for _, o := range opts {
		if o != nil {
			o(h)
		}
	}

	switch {
	case h.host == nil:
		h.host = DefaultHost()
		if h.caps == nil {
			h.caps = DefaultCapabilities()
		}
	case h.caps == nil:
		h.caps = Probe(h.host)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}

	h.ready.Store(true)
	return h
}

// On registers cb for kind, replacing any earlier callback for that kind.
func (h *Hasher) On(kind EventKind, cb Callback) error {
	if kind < 0 || kind >= numEventKinds {
		return fmt.Errorf("%w: event kind %d", ErrInvalidParameter, int(kind))
	}
	h.mu.Lock()
	h.callbacks[kind] = cb
	h.mu.Unlock()
	return nil
}

// IsReady reports whether no batch is in flight.
func (h *Hasher) IsReady() bool {
	return h.ready.Load()
}

// Start accepts a batch and processes it in the background, strictly in
// order. It fails with ErrNotReady while another batch is in flight and with
// ErrInvalidParameter for an empty batch or a nil handle; in both cases no
// state changes.
func (h *Hasher) Start(files ...File) (*Batch, error) {
	if !h.ready.Load() {
		return nil, ErrNotReady
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrInvalidParameter)
	}
	for i, f := range files {
		if f == nil {
			return nil, fmt.Errorf("%w: file %d is nil", ErrInvalidParameter, i)
		}
	}
	if !h.ready.CompareAndSwap(true, false) {
		return nil, ErrNotReady
	}

	b := newBatch(files)
	go h.run(b)
	return b, nil
}

func (h *Hasher) run(b *Batch) {
	var session *workerSession
	defer func() {
		if session != nil {
			session.close()
		}
		h.ready.Store(true)
		close(b.done)
	}()

	snap := h.caps.Snapshot()
	for i, f := range b.files {
		res, handled := h.process(f, snap, &session)
		b.results[i] = res
		if res.Err != nil && !handled {
			b.unhandled = append(b.unhandled, res.Err)
		}
	}
}

// process runs one file to settlement. handled is false when the file failed
// and no error callback was registered.
func (h *Hasher) process(f File, snap Snapshot, session **workerSession) (res JobResult, handled bool) {
	res = JobResult{File: f, State: JobPending}
	e := &jobEmitter{h: h, file: f}
	lg := h.logger.With("file", f.Name(), "size", humanize.Bytes(uint64(max(f.Size(), 0))))

	settle := func(digest string, err error) (JobResult, bool) {
		if err != nil {
			res.State = JobFailed
			res.Err = &FileError{File: f, Backend: res.Backend, Err: err}
			handled = e.fail(res.Err)
			if !handled {
				lg.Warn("hash failed", "backend", res.Backend, "error", err)
			} else {
				lg.Debug("hash failed", "backend", res.Backend, "error", err)
			}
			return res, handled
		}
		res.State = JobDone
		res.Digest = digest
		e.result(digest)
		lg.Debug("hash done", "backend", res.Backend, "digest", digest)
		return res, true
	}

	kind, err := Select(f.Size(), snap, h.limits)
	if err != nil {
		return settle("", err)
	}
	res.Backend = kind

	impl, err := h.backend(kind, session)
	if err != nil {
		return settle("", err)
	}

	res.State = JobRunning
	lg.Debug("hash running", "backend", kind)
	return settle(impl.hash(f, e))
}

// backend builds the implementation for kind. The worker session is created
// on first use and lives until the batch ends.
func (h *Hasher) backend(kind Backend, session **workerSession) (backend, error) {
	switch kind {
	case BackendNative:
		if h.host.Digest == nil {
			return nil, ErrNoViableBackend
		}
		return &nativeDigest{digest: h.host.Digest, chunkSize: h.host.chunkSize()}, nil
	case BackendWorker:
		if *session == nil {
			s, err := newWorkerSession(h.host, h.logger)
			if err != nil {
				return nil, err
			}
			*session = s
		}
		return *session, nil
	case BackendIncremental:
		return &incrementalDigest{max: h.limits.IncrementalMax, chunkSize: h.host.chunkSize()}, nil
	default:
		return nil, ErrNoViableBackend
	}
}

// dispatch invokes the callback registered for ev.Kind and reports whether
// there was one.
func (h *Hasher) dispatch(ev Event) bool {
	h.mu.RLock()
	cb := h.callbacks[ev.Kind]
	h.mu.RUnlock()
	if cb == nil {
		return false
	}
	cb(ev)
	return true
}

// Batch is a handle on an accepted Start call.
type Batch struct {
	files     []File
	results   []JobResult
	unhandled []error
	done      chan struct{}
}

func newBatch(files []File) *Batch {
	return &Batch{
		files:   append([]File(nil), files...),
		results: make([]JobResult, len(files)),
		done:    make(chan struct{}),
	}
}

// Done is closed once every file has settled, the worker session (if any)
// has been terminated and the Hasher is ready again.
func (b *Batch) Done() <-chan struct{} { return b.done }

// Wait blocks until the batch is done and returns the failures that no
// error callback received, joined.
func (b *Batch) Wait() error {
	<-b.done
	return errors.Join(b.unhandled...)
}

// Results blocks until the batch is done and returns one result per input
// file, in input order.
func (b *Batch) Results() []JobResult {
	<-b.done
	return b.results
}

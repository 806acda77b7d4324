package hashfile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// backend hashes one file, forwarding start and progress through e. The
// terminal result or error is returned; the Hasher emits it.
type backend interface {
	hash(f File, e *jobEmitter) (string, error)
}

// nativeDigest reads the whole file into memory and hands it to the host's
// one-shot primitive.
type nativeDigest struct {
	digest    DigestFunc
	chunkSize int
}

func (d *nativeDigest) hash(f File, e *jobEmitter) (string, error) {
	data, err := readChunked(f, d.chunkSize, e.start, func(_ []byte, loaded, total int64) {
		e.progress(fraction(loaded, total))
	})
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}

	sum, err := d.digest(data)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return hex.EncodeToString(sum), nil
}

// incrementalDigest feeds each newly loaded range of the cumulative read
// buffer into a running SHA-256 state.
type incrementalDigest struct {
	max       int64
	chunkSize int
}

func (d *incrementalDigest) hash(f File, e *jobEmitter) (string, error) {
	if f.Size() > d.max {
		return "", ErrFileTooLargeWithoutWorker
	}

	h := sha256.New()
	var consumed int64
	_, err := readChunked(f, d.chunkSize, e.start, func(buf []byte, loaded, total int64) {
		h.Write(buf[consumed:loaded])
		consumed = loaded
		e.progress(fraction(loaded, total))
	})
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// workerSession proxies files to one persistent worker for the length of a
// batch.
type workerSession struct {
	w      *worker
	logger *slog.Logger
}

func newWorkerSession(host *Host, logger *slog.Logger) (*workerSession, error) {
	w, err := host.spawn(hashScript)
	if err != nil {
		return nil, err
	}
	return &workerSession{w: w, logger: logger}, nil
}

func (s *workerSession) hash(f File, e *jobEmitter) (string, error) {
	if err := s.w.send(f); err != nil {
		return "", err
	}

	for frame := range s.w.messages() {
		r, kind, err := decodeReply(frame)
		if err != nil {
			s.logger.Warn("unexpected worker message",
				"file", f.Name(), "frame", diagnose(frame), "error", err)
			continue
		}

		switch kind {
		case replyStart:
			e.start()
		case replyProgress:
			e.progress(*r.Progress)
		case replyResult:
			return *r.Result, nil
		case replyError:
			return "", &WorkerError{Message: *r.Error}
		}
	}
	return "", ErrWorkerTerminated
}

func (s *workerSession) close() {
	s.w.terminate()
	// wait for the worker goroutine to exit
	for range s.w.messages() {
	}
}

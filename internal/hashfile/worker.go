package hashfile

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"

	sha256simd "github.com/minio/sha256-simd"
)

// workerEnv is what a script sees of the runtime it was spawned in.
type workerEnv struct {
	syncRead  bool
	chunkSize int
}

// script handles one posted message. post encodes v as a frame and returns
// false once the worker has been terminated.
type script func(env workerEnv, msg File, post func(v any) bool)

// worker is a goroutine that receives File handles and answers with encoded
// frames. It handles one message at a time, in order.
type worker struct {
	in   chan File
	out  chan []byte
	quit chan struct{}
	once sync.Once
}

// spawn starts a worker running s.
func (h *Host) spawn(s script) (*worker, error) {
	if !h.Threads {
		return nil, ErrWorkerUnavailable
	}

	w := &worker{
		in:   make(chan File),
		out:  make(chan []byte, 16),
		quit: make(chan struct{}),
	}
	env := workerEnv{syncRead: h.WorkerSyncRead, chunkSize: h.chunkSize()}

	go func() {
		defer close(w.out)
		for {
			select {
			case <-w.quit:
				return
			case msg := <-w.in:
				w.handle(s, env, msg)
			}
		}
	}()

	return w, nil
}

func (w *worker) handle(s script, env workerEnv, msg File) {
	defer func() {
		if r := recover(); r != nil {
			w.post(errorReply(fmt.Sprint("worker panic: ", r)))
		}
	}()
	s(env, msg, w.post)
}

func (w *worker) post(v any) bool {
	frame, err := frameEnc.Marshal(v)
	if err != nil {
		frame, _ = frameEnc.Marshal(errorReply("encode reply: " + err.Error()))
	}
	select {
	case w.out <- frame:
		return true
	case <-w.quit:
		return false
	}
}

// send delivers msg to the worker; it is the only outbound payload.
func (w *worker) send(msg File) error {
	select {
	case w.in <- msg:
		return nil
	case <-w.quit:
		return ErrWorkerTerminated
	}
}

func (w *worker) messages() <-chan []byte { return w.out }

// terminate stops the worker. It is safe to call more than once.
func (w *worker) terminate() {
	w.once.Do(func() { close(w.quit) })
}

// syncReadScript answers any message with the runtime's sync-read flag.
func syncReadScript(env workerEnv, _ File, post func(any) bool) {
	post(env.syncRead)
}

// hashScript streams msg through sha256-simd in chunkSize reads, posting
// start, progress per chunk and the result.
func hashScript(env workerEnv, msg File, post func(any) bool) {
	if msg == nil {
		post(errorReply("no file posted"))
		return
	}
	if !env.syncRead {
		post(errorReply("synchronous reads are not available in this worker"))
		return
	}

	in, err := msg.Open()
	if err != nil {
		post(errorReply(err.Error()))
		return
	}
	defer in.Close()

	if !post(startReply()) {
		return
	}

	pr := newProgressReader(in, msg.Size())
	h := sha256simd.New()
	buf := make([]byte, env.chunkSize)
	for {
		n, err := pr.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
			if !post(progressReply(pr.Fraction())) {
				return
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			post(errorReply(err.Error()))
			return
		}
	}

	post(resultReply(hex.EncodeToString(h.Sum(nil))))
}

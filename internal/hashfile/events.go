package hashfile

import (
	"fmt"
	"math"
)

type EventKind int

const (
	EventStart EventKind = iota
	EventProgress
	EventResult
	EventError

	numEventKinds
)

var eventNames = [...]string{
	"start",
	"progress",
	"result",
	"error",
}

func (k EventKind) String() string {
	if k < 0 || k >= numEventKinds {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventNames[k]
}

// Event is delivered to registered callbacks. File is always set. Progress
// is meaningful for EventProgress, Digest for EventResult and Err for
// EventError.
type Event struct {
	Kind     EventKind
	File     File
	Progress float64
	Digest   string
	Err      error
}

// Callback receives events on the goroutine driving the batch. It must not
// call Start on the same Hasher synchronously expecting success.
type Callback func(Event)

// jobEmitter is handed to a backend for one file. It forwards start and
// progress events, and keeps the per-file guarantees: one start ahead of any
// progress or result, progress non-decreasing within [0,1], nothing after
// the terminal event.
type jobEmitter struct {
	h        *Hasher
	file     File
	started  bool
	last     float64
	terminal bool
}

func (e *jobEmitter) start() {
	if e.started || e.terminal {
		return
	}
	e.started = true
	e.h.dispatch(Event{Kind: EventStart, File: e.file})
}

func (e *jobEmitter) progress(p float64) {
	if e.terminal {
		e.h.logger.Debug("progress after terminal event dropped", "file", e.file.Name())
		return
	}
	if p < e.last || p > 1 || math.IsNaN(p) {
		e.h.logger.Debug("out of order progress dropped", "file", e.file.Name(), "progress", p, "last", e.last)
		return
	}
	e.start()
	e.last = p
	e.h.dispatch(Event{Kind: EventProgress, File: e.file, Progress: p})
}

func (e *jobEmitter) result(digest string) {
	if e.terminal {
		return
	}
	e.start()
	e.terminal = true
	e.h.dispatch(Event{Kind: EventResult, File: e.file, Digest: digest})
}

// fail reports whether an error callback took the event.
func (e *jobEmitter) fail(err error) bool {
	if e.terminal {
		return true
	}
	e.terminal = true
	return e.h.dispatch(Event{Kind: EventError, File: e.file, Err: err})
}

package hashfile

import (
	"sync"
	"time"
)

// Snapshot is the resolved, immutable view of the capabilities.
type Snapshot struct {
	Native         bool
	WorkerSyncRead bool
	Incremental    bool
}

// Capabilities is probed once. Native and Incremental are known
// immediately; WorkerSyncRead resolves in the background.
type Capabilities struct {
	native      bool
	incremental bool

	resolved       chan struct{}
	workerSyncRead bool
}

// Probe inspects host without blocking. A throwaway worker is spawned in the
// background and asked whether it can perform synchronous reads; any failure
// along the way resolves to false.
func Probe(host *Host) *Capabilities {
	c := &Capabilities{
		native:      host.Digest != nil && host.Secure,
		incremental: host.Software,
		resolved:    make(chan struct{}),
	}
	go func() {
		defer close(c.resolved)
		c.workerSyncRead = probeWorkerSyncRead(host, syncReadScript)
	}()
	return c
}

// StaticCapabilities returns already resolved capabilities.
func StaticCapabilities(s Snapshot) *Capabilities {
	c := &Capabilities{
		native:         s.Native,
		incremental:    s.Incremental,
		resolved:       make(chan struct{}),
		workerSyncRead: s.WorkerSyncRead,
	}
	close(c.resolved)
	return c
}

var defaultCapabilities = sync.OnceValue(func() *Capabilities {
	return Probe(DefaultHost())
})

// DefaultCapabilities probes DefaultHost once per process.
func DefaultCapabilities() *Capabilities {
	return defaultCapabilities()
}

func (c *Capabilities) NativeDigest() bool { return c.native }

// WorkerSyncRead waits for the worker probe to resolve.
func (c *Capabilities) WorkerSyncRead() bool {
	<-c.resolved
	return c.workerSyncRead
}

// Snapshot waits for the worker probe and returns the full view.
func (c *Capabilities) Snapshot() Snapshot {
	return Snapshot{
		Native:         c.native,
		WorkerSyncRead: c.WorkerSyncRead(),
		Incremental:    c.incremental,
	}
}

// probeWorkerSyncRead spawns a throwaway worker running s and reads one
// boolean reply from it.
func probeWorkerSyncRead(host *Host, s script) (supported bool) {
	defer func() {
		if recover() != nil {
			supported = false
		}
	}()

	w, err := host.spawn(s)
	if err != nil {
		return false
	}
	defer w.terminate()

	if err := w.send(nil); err != nil {
		return false
	}

	timer := time.NewTimer(host.probeTimeout())
	defer timer.Stop()

	select {
	case frame, ok := <-w.messages():
		if !ok {
			return false
		}
		if err := frameDec.Unmarshal(frame, &supported); err != nil {
			return false
		}
		return supported
	case <-timer.C:
		return false
	}
}

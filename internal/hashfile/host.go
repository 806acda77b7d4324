package hashfile

import (
	"time"

	sha256simd "github.com/minio/sha256-simd"
)

const (
	DefaultChunkSize    = 1024 * 1024
	DefaultProbeTimeout = 5 * time.Second
)

// DigestFunc is a one-shot SHA-256 primitive over a complete buffer.
type DigestFunc func(data []byte) ([]byte, error)

// Host describes what the runtime offers the engine. The zero value offers
// nothing; DefaultHost is the unconstrained Go process.
type Host struct {
	// Secure marks a trusted execution context. Digest is only used when
	// Secure is set.
	Secure bool

	// Digest is the accelerated one-shot primitive, nil when absent.
	Digest DigestFunc

	// Software reports that the portable incremental hasher is present.
	Software bool

	// Threads reports that worker goroutines may be spawned.
	Threads bool

	// WorkerSyncRead is what a spawned worker reports about its own ability
	// to perform blocking chunked reads.
	WorkerSyncRead bool

	ChunkSize    int
	ProbeTimeout time.Duration
}

// DefaultHost returns a host with every capability available and the
// sha256-simd primitive as the accelerated digest.
func DefaultHost() *Host {
	return &Host{
		Secure:         true,
		Digest:         SIMDDigest,
		Software:       true,
		Threads:        true,
		WorkerSyncRead: true,
		ChunkSize:      DefaultChunkSize,
		ProbeTimeout:   DefaultProbeTimeout,
	}
}

// SIMDDigest hashes data with the SHA-NI/AVX accelerated implementation.
func SIMDDigest(data []byte) ([]byte, error) {
	sum := sha256simd.Sum256(data)
	return sum[:], nil
}

func (h *Host) chunkSize() int {
	if h.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return h.ChunkSize
}

func (h *Host) probeTimeout() time.Duration {
	if h.ProbeTimeout <= 0 {
		return DefaultProbeTimeout
	}
	return h.ProbeTimeout
}

package manifest

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sha256simd "github.com/minio/sha256-simd"
	"gopkg.in/yaml.v3"

	"github.com/whtech/woleet-weblibs/internal/hashfile"
)

// Manifest records the outcome of one hashing batch.
type Manifest struct {
	Generated time.Time `yaml:"generated"`
	Entries   []Entry   `yaml:"entries"`
}

type Entry struct {
	Name    string `yaml:"name"`
	Size    int64  `yaml:"size"`
	SHA256  string `yaml:"sha256,omitempty"`
	Backend string `yaml:"backend,omitempty"`
	Error   string `yaml:"error,omitempty"`
}

// FromResults builds a manifest in batch order.
func FromResults(results []hashfile.JobResult, now time.Time) *Manifest {
	m := &Manifest{Generated: now.UTC(), Entries: make([]Entry, 0, len(results))}
	for _, r := range results {
		e := Entry{
			Name:   r.File.Name(),
			Size:   r.File.Size(),
			SHA256: r.Digest,
		}
		if r.Backend != hashfile.BackendNone {
			e.Backend = r.Backend.String()
		}
		if r.Err != nil {
			e.Error = r.Err.Error()
		}
		m.Entries = append(m.Entries, e)
	}
	return m
}

func (m *Manifest) Encode() ([]byte, error) {
	return yaml.Marshal(m)
}

func Decode(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Sink stores an encoded manifest. name is the manifest's file name.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// Write encodes m and hands it to sink, returning where it landed.
func Write(ctx context.Context, sink Sink, name string, m *Manifest) (string, error) {
	data, err := m.Encode()
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	return sink.Put(ctx, name, data)
}

// FileSink writes the manifest to Path, or under Path when it is a
// directory. An empty Path writes name in the working directory.
type FileSink struct {
	Path string
}

func (s *FileSink) Put(_ context.Context, name string, data []byte) (string, error) {
	path := s.Path
	if path == "" {
		path = name
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, name)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func digestOf(data []byte) string {
	sum := sha256simd.Sum256(data)
	return hex.EncodeToString(sum[:])
}

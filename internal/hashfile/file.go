package hashfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// File is a read-only handle on a blob of known length. The engine never
// writes through it; events carry the handle back to the caller so results
// stay attributable.
type File interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// OpenFile returns a handle on the regular file at path. The size is taken
// from the stat at construction.
func OpenFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: not a regular file", path)
	}
	return &localFile{path: path, size: info.Size()}, nil
}

type localFile struct {
	path string
	size int64
}

func (f *localFile) Name() string                 { return f.path }
func (f *localFile) Size() int64                  { return f.size }
func (f *localFile) Open() (io.ReadCloser, error) { return os.Open(f.path) }

// NewMemFile returns a handle on an in-memory blob. data must not be
// modified afterwards.
func NewMemFile(name string, data []byte) File {
	return &memFile{name: name, data: data}
}

type memFile struct {
	name string
	data []byte
}

func (f *memFile) Name() string { return f.name }
func (f *memFile) Size() int64  { return int64(len(f.data)) }

func (f *memFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

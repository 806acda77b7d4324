package hashfile

import (
	"errors"
	"io"
)

// readChunked loads f into one cumulative buffer, chunkSize bytes at a time.
// onStart runs once before the first read. onProgress runs after every
// chunk with the cumulative buffer so far and the loaded/total byte counts;
// the buffer may be reallocated once the call returns.
func readChunked(f File, chunkSize int, onStart func(), onProgress func(buf []byte, loaded, total int64)) ([]byte, error) {
	in, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer in.Close()

	total := f.Size()
	pr := newProgressReader(in, total)

	onStart()

	buf := make([]byte, 0, int(max(total, 0)))
	var spill []byte
	for {
		// Read straight into the preallocated buffer; only a blob longer
		// than announced goes through spill.
		var dst []byte
		if len(buf) < cap(buf) {
			dst = buf[len(buf):min(len(buf)+chunkSize, cap(buf))]
		} else {
			if spill == nil {
				spill = make([]byte, chunkSize)
			}
			dst = spill
		}

		n, err := pr.Read(dst)
		if n > 0 {
			if len(buf) < cap(buf) {
				buf = buf[:len(buf)+n]
			} else {
				buf = append(buf, dst[:n]...)
			}
			if onProgress != nil {
				loaded := pr.Loaded()
				onProgress(buf, loaded, max(total, loaded))
			}
		}
		if errors.Is(err, io.EOF) {
			return buf, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

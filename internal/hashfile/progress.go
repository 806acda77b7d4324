package hashfile

import (
	"io"
)

// progressReader counts the bytes flowing through in, and knows the total
// it expects so it can report a completion fraction.
type progressReader struct {
	in    io.Reader
	total int64
	bytes int64
}

func newProgressReader(in io.Reader, total int64) *progressReader {
	return &progressReader{in: in, total: total}
}

func (pr *progressReader) Read(p []byte) (int, error) {
	size, err := pr.in.Read(p)
	pr.bytes += int64(size)

	return size, err
}

func (pr *progressReader) Loaded() int64 { return pr.bytes }

func (pr *progressReader) Fraction() float64 {
	return fraction(pr.bytes, pr.total)
}

// fraction is loaded/total clamped to [0,1]. An empty blob is complete.
func fraction(loaded, total int64) float64 {
	if total <= 0 || loaded >= total {
		return 1
	}
	if loaded <= 0 {
		return 0
	}
	return float64(loaded) / float64(total)
}

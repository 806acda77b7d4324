package hashfile

import (
	"fmt"
	"io"
	"time"

	humanize "github.com/dustin/go-humanize"
)

type Summarizer struct {
	StartTime   time.Time
	EndTime     time.Time
	TotalFiles  uint64
	TotalHashed uint64
	TotalFailed uint64
	TotalBytes  uint64
	ByBackend   map[Backend]uint64

	verbose bool
	out     io.Writer
}

func NewSummarizer(out io.Writer, verbose bool) *Summarizer {
	return &Summarizer{
		ByBackend: make(map[Backend]uint64),
		verbose:   verbose,
		out:       out,
	}
}

// Run waits for b and tallies its results. Failures are always listed;
// successful files only when verbose.
func (s *Summarizer) Run(b *Batch) {
	s.StartTime = time.Now()

	for _, res := range b.Results() {
		s.TotalFiles += 1
		size := uint64(max(res.File.Size(), 0))

		switch res.State {
		case JobDone:
			s.TotalHashed += 1
			s.TotalBytes += size
			s.ByBackend[res.Backend] += 1
		default:
			s.TotalFailed += 1
		}

		if s.verbose || res.State != JobDone {
			fmt.Fprintf(s.out, "-> %-6s %s (%s, %s)\n", res.State, res.File.Name(), humanize.Bytes(size), res.Backend)
			if res.Err != nil {
				fmt.Fprintf(s.out, "     %s\n", res.Err)
			}
		}
	}
	s.EndTime = time.Now()
}

func (s *Summarizer) Report() {
	duration := s.EndTime.UnixMilli() - s.StartTime.UnixMilli()
	if duration == 0 {
		duration = 1
	}
	rate := uint64(float64(s.TotalBytes) / float64(duration) * 1000.0)

	fmt.Fprintln(s.out, "hash summary")
	fmt.Fprintf(s.out, "      runtime: %s ms\n", humanize.Comma(duration))
	fmt.Fprintf(s.out, "  total files: %s\n", humanize.Comma(int64(s.TotalFiles)))
	fmt.Fprintf(s.out, "       hashed: %d\n", s.TotalHashed)
	for _, b := range []Backend{BackendNative, BackendWorker, BackendIncremental} {
		if n := s.ByBackend[b]; n > 0 {
			fmt.Fprintf(s.out, "  %11s: %d\n", b, n)
		}
	}
	fmt.Fprintf(s.out, "        bytes: %s\n", humanize.Bytes(s.TotalBytes))
	fmt.Fprintf(s.out, "       failed: %d\n", s.TotalFailed)
	fmt.Fprintf(s.out, "         rate: %s/s\n", humanize.Bytes(rate))
}

func (s *Summarizer) ExitStatus() int {
	if s.TotalFailed == 0 {
		return 0
	}
	return 1
}

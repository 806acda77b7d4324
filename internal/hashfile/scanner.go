package hashfile

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Scan lists the files under root in a stable order. A regular file yields
// itself. Directories are walked recursively in name order; unreadable
// directories are logged and skipped. maxFiles < 0 means no limit.
func Scan(root string, ignoreDot bool, maxFiles int, logger *slog.Logger) ([]File, error) {
	// quick sanity check
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}

	s := &scanner{ignoreDot: ignoreDot, maxFiles: maxFiles, logger: logger}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	if info.Mode().IsRegular() {
		// a single file... nothing to walk
		s.add(root, info.Size())
	} else if info.IsDir() {
		s.scan(root)
	}

	return s.files, nil
}

type scanner struct {
	ignoreDot bool
	maxFiles  int
	logger    *slog.Logger
	files     []File
}

func (s *scanner) full() bool {
	return s.maxFiles >= 0 && len(s.files) >= s.maxFiles
}

func (s *scanner) add(path string, size int64) {
	if s.full() {
		return
	}
	s.files = append(s.files, &localFile{path: path, size: size})
}

func (s *scanner) scan(cdir string) {
	entries, err := os.ReadDir(cdir)
	if err != nil {
		s.logger.Warn("failed to read dir", "dir", cdir, "error", err)
		return
	}

	for _, entry := range entries {
		if s.full() {
			return
		}
		if s.ignoreDot && strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		fpath := filepath.Join(cdir, entry.Name())

		if entry.Type().IsRegular() {
			info, err := entry.Info()
			if err != nil {
				s.logger.Warn("failed to stat file", "file", fpath, "error", err)
				continue
			}
			s.add(fpath, info.Size())
		} else if entry.IsDir() {
			s.scan(fpath)
		}
	}
}

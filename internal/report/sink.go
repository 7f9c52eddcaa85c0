package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nao1215/scopecrawl/internal/model"
)

// FileSink rewrites a file with the latest summary every time it is
// written to. Readers never observe a partially written file: the summary
// is rendered into a temporary file in the same directory and renamed over
// the target.
type FileSink struct {
	path   string
	format Format

	// mu serializes writers so renames never interleave.
	mu sync.Mutex
}

// NewFileSink creates a sink that keeps path up to date in format.
func NewFileSink(path string, format Format) (*FileSink, error) {
	if path == "" {
		return nil, ErrEmptySinkPath
	}
	if _, err := NewWriter(format, &bytes.Buffer{}); err != nil {
		return nil, err
	}
	return &FileSink{path: path, format: format}, nil
}

// Path returns the file the sink writes to.
func (s *FileSink) Path() string {
	return s.path
}

// Write renders summary and atomically replaces the sink file.
// It returns the number of bytes in the new file.
func (s *FileSink) Write(summary *model.Summary) (int, error) {
	var buf bytes.Buffer
	w, err := NewWriter(s.format, &buf)
	if err != nil {
		return 0, err
	}
	if _, err := w.Write(summary); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return 0, fmt.Errorf("failed to create summary directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary summary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // gone after a successful rename

	n, err := tmp.Write(buf.Bytes())
	if err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error takes precedence
		return 0, fmt.Errorf("failed to write summary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close summary: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil { //nolint:gosec // the summary is meant to be read by others
		return 0, fmt.Errorf("failed to set summary permissions: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return 0, fmt.Errorf("failed to replace summary: %w", err)
	}

	return n, nil
}

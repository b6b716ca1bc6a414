package output

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fbz-tec/codexport/internal/logger"
)

// bufferSize is the write buffer used for output files.
const bufferSize = 256 * 1024

// File is an output file that only appears at its final path on Commit.
// Data goes to a temporary file in the same directory; Abort removes it.
type File struct {
	w      *bufio.Writer
	path   string
	tmp    *os.File
	start  time.Time
	closed bool
}

// Create opens a temporary file next to path.
func Create(path string) (*File, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("error creating file: %w", err)
	}
	logger.Debug("Writing %s through %s", path, tmp.Name())

	return &File{
		w:     bufio.NewWriterSize(tmp, bufferSize),
		path:  path,
		tmp:   tmp,
		start: time.Now(),
	}, nil
}

func (f *File) Write(p []byte) (int, error) {
	if f.closed {
		return 0, fmt.Errorf("output file %s already closed", f.path)
	}
	return f.w.Write(p)
}

// Path is the final destination of the file.
func (f *File) Path() string { return f.path }

// Commit flushes, syncs and renames the file into place.
func (f *File) Commit() error {
	if f.closed {
		return fmt.Errorf("output file %s already closed", f.path)
	}
	f.closed = true

	if err := f.w.Flush(); err != nil {
		f.discard()
		return fmt.Errorf("error flushing buffer: %w", err)
	}
	if err := f.tmp.Sync(); err != nil {
		f.discard()
		return fmt.Errorf("error syncing file: %w", err)
	}
	if err := f.tmp.Close(); err != nil {
		os.Remove(f.tmp.Name())
		return fmt.Errorf("error closing file: %w", err)
	}
	if err := os.Chmod(f.tmp.Name(), 0o644); err != nil {
		logger.Debug("Unable to set permissions on %s: %v", f.tmp.Name(), err)
	}
	if err := os.Rename(f.tmp.Name(), f.path); err != nil {
		os.Remove(f.tmp.Name())
		return fmt.Errorf("error moving file into place: %w", err)
	}

	logger.Debug("File %s committed in %v", f.path, time.Since(f.start))
	return nil
}

// Abort drops the temporary file. It is a no-op after Commit.
func (f *File) Abort() {
	if f.closed {
		return
	}
	f.closed = true
	f.discard()
	logger.Debug("Output %s aborted", f.path)
}

func (f *File) discard() {
	f.tmp.Close()
	os.Remove(f.tmp.Name())
}

// Package archive bundles named payloads into one compressed container held in memory.
package archive

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fbz-tec/codexport/internal/logger"
	"github.com/klauspost/compress/zip"
)

var (
	ErrDuplicateEntryName = errors.New("duplicate archive entry name")
	ErrClosed             = errors.New("archive already closed")
)

// Entry is one named file inside an archive.
type Entry struct {
	Name string
	Data []byte
}

// container is the format specific part of a Writer.
type container struct {
	add      func(Entry) error
	finalize func() error
	// release frees resources without producing output. It must be safe after finalize.
	release func()
}

// Writer collects entries into a single container.
// Use Open, then defer Discard: after a successful Close, Discard is a no-op.
type Writer struct {
	format  Format
	buf     *bytes.Buffer
	c       container
	names   map[string]struct{}
	order   []string
	written int64
	closed  bool
	start   time.Time
}

// Open starts a new in-memory archive of the given format.
func Open(format Format) (*Writer, error) {
	w := &Writer{
		format: format,
		buf:    new(bytes.Buffer),
		names:  make(map[string]struct{}),
		start:  time.Now(),
	}

	var err error
	switch format {
	case Zip:
		w.c = newZipContainer(w.buf)
	case TarGzip, TarZstd, TarLz4:
		w.c, err = newTarContainer(w.buf, format)
	default:
		err = fmt.Errorf("unsupported archive format %q", format)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("Opened %s archive", format)
	return w, nil
}

// Add stores one entry. Names must be unique within the archive.
func (w *Writer) Add(e Entry) error {
	if w.closed {
		return ErrClosed
	}
	if e.Name == "" {
		return fmt.Errorf("archive entry name cannot be empty")
	}
	if _, dup := w.names[e.Name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateEntryName, e.Name)
	}

	if err := w.c.add(e); err != nil {
		return fmt.Errorf("error adding %s to archive: %w", e.Name, err)
	}

	w.names[e.Name] = struct{}{}
	w.order = append(w.order, e.Name)
	w.written += int64(len(e.Data))
	logger.Debug("Archive entry added: %s (%d bytes)", e.Name, len(e.Data))
	return nil
}

// Len returns the number of entries added so far.
func (w *Writer) Len() int { return len(w.order) }

// Names returns the entry names in insertion order.
func (w *Writer) Names() []string { return append([]string(nil), w.order...) }

// Close finalizes the container and returns its bytes.
func (w *Writer) Close() ([]byte, error) {
	if w.closed {
		return nil, ErrClosed
	}
	w.closed = true

	if err := w.c.finalize(); err != nil {
		w.c.release()
		w.buf = nil
		return nil, fmt.Errorf("error finalizing archive: %w", err)
	}

	out := w.buf.Bytes()
	w.buf = nil
	logger.Debug("Archive closed: %d entries, %d bytes in, %d bytes out (%v)",
		len(w.order), w.written, len(out), time.Since(w.start))
	return out, nil
}

// Discard drops a partially written archive and releases its buffers.
func (w *Writer) Discard() {
	if w.closed {
		return
	}
	w.closed = true
	w.c.release()
	w.buf = nil
	logger.Debug("Archive discarded after %d entries", len(w.order))
}

func newZipContainer(dst io.Writer) container {
	zw := zip.NewWriter(dst)
	return container{
		add: func(e Entry) error {
			fw, err := zw.CreateHeader(&zip.FileHeader{
				Name:     e.Name,
				Method:   zip.Deflate,
				Modified: time.Now(),
			})
			if err != nil {
				return err
			}
			_, err = fw.Write(e.Data)
			return err
		},
		finalize: zw.Close,
		release:  func() { _ = zw.Close() },
	}
}

func newTarContainer(dst io.Writer, format Format) (container, error) {
	comp, err := format.compressor(dst)
	if err != nil {
		return container{}, err
	}
	tw := tar.NewWriter(comp)

	return container{
		add: func(e Entry) error {
			hdr := &tar.Header{
				Name:     e.Name,
				Mode:     0o644,
				Size:     int64(len(e.Data)),
				ModTime:  time.Now(),
				Typeflag: tar.TypeReg,
			}
			if err := tw.WriteHeader(hdr); err != nil {
				return err
			}
			_, err := tw.Write(e.Data)
			return err
		},
		finalize: func() error {
			var err error
			if terr := tw.Close(); terr != nil {
				err = terr
			}
			if cerr := comp.Close(); cerr != nil && err == nil {
				err = cerr
			}
			return err
		},
		release: func() { _ = comp.Close() },
	}, nil
}

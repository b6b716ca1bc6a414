package archive

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Format is the container kind produced by a Writer.
type Format string

const (
	Zip     Format = "zip"
	TarGzip Format = "tar.gz"
	TarZstd Format = "tar.zst"
	TarLz4  Format = "tar.lz4"
)

var formats = []Format{Zip, TarGzip, TarZstd, TarLz4}

// ParseFormat accepts a container name such as "zip", "tgz" or "tar.zst".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zip":
		return Zip, nil
	case "tar.gz", "tgz", "gzip":
		return TarGzip, nil
	case "tar.zst", "tar.zstd", "zstd":
		return TarZstd, nil
	case "tar.lz4", "lz4":
		return TarLz4, nil
	default:
		names := make([]string, len(formats))
		for i, f := range formats {
			names[i] = string(f)
		}
		return "", fmt.Errorf("unsupported archive format %q (available: %s)", s, strings.Join(names, ", "))
	}
}

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string { return "." + string(f) }

// compressor wraps dst with the stream compression used by tar based formats.
func (f Format) compressor(dst io.Writer) (io.WriteCloser, error) {
	switch f {
	case TarGzip:
		return gzip.NewWriter(dst), nil
	case TarZstd:
		enc, err := zstd.NewWriter(dst)
		if err != nil {
			return nil, fmt.Errorf("error creating zstd writer: %w", err)
		}
		return enc, nil
	case TarLz4:
		return lz4.NewWriter(dst), nil
	default:
		return nil, fmt.Errorf("format %q has no stream compressor", f)
	}
}

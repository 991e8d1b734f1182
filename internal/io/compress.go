package io

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	tserrors "github.com/paveg/tabstat/internal/errors"
)

// Compression identifies how an input file is encoded on disk.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
	LZ4
	Snappy
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	case Snappy:
		return "snappy"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

// DetectCompression infers the compression from the file extension.
func DetectCompression(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	case ".sz", ".snappy":
		return Snappy
	default:
		return None
	}
}

// Source is an opened input file, decompressed when needed.
type Source struct {
	io.Reader
	Path        string
	Compression Compression
	Size        int64

	closers []io.Closer
}

// Compressed reports whether reads go through a decompressor.
func (s *Source) Compressed() bool { return s.Compression != None }

// Close releases the decompressor and the file.
func (s *Source) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

// Open opens path for sequential reading. Compressed files are
// decompressed transparently.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("reading input size: %w", err)
	}

	src := &Source{
		Path:        path,
		Compression: DetectCompression(path),
		Size:        info.Size(),
		closers:     []io.Closer{f},
	}

	switch src.Compression {
	case Gzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		src.Reader = zr
		src.closers = append(src.closers, zr)
	case Zstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		src.Reader = dec
		src.closers = append(src.closers, dec.IOReadCloser())
	case LZ4:
		src.Reader = lz4.NewReader(f)
	case Snappy:
		src.Reader = snappy.NewReader(f)
	default:
		src.Reader = f
	}

	return src, nil
}

// OpenAt opens an uncompressed file positioned at offset.
func OpenAt(path string, offset int64) (*Source, error) {
	if c := DetectCompression(path); c != None {
		return nil, tserrors.ErrCompressedSeek
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("seeking to offset %d: %w", offset, err)
	}
	return &Source{Reader: f, Path: path, closers: []io.Closer{f}}, nil
}

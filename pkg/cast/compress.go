package cast

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression is the codec a recording file is stored with.
type Compression int

const (
	NoCompression Compression = iota
	GzipCompression
	ZstdCompression
	LZ4Compression
)

func (c Compression) String() string {
	switch c {
	case GzipCompression:
		return "gzip"
	case ZstdCompression:
		return "zstd"
	case LZ4Compression:
		return "lz4"
	default:
		return "none"
	}
}

// CompressionFor picks the codec from the file extension.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return GzipCompression
	case ".zst", ".zstd":
		return ZstdCompression
	case ".lz4":
		return LZ4Compression
	default:
		return NoCompression
	}
}

// NewCompressedReader returns a reader that decompresses data after reading
func NewCompressedReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case GzipCompression:
		return gzip.NewReader(r)
	case ZstdCompression:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	case LZ4Compression:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}

// NewCompressedWriter returns a writer that compresses data before writing.
// Closing it flushes the codec but leaves w open.
func NewCompressedWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case GzipCompression:
		return gzip.NewWriter(w), nil
	case ZstdCompression:
		return zstd.NewWriter(w)
	case LZ4Compression:
		return lz4.NewWriter(w), nil
	default:
		return nopWriteCloser{w}, nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// Package compression provides the streaming codecs Canopy uses for
// compressed input datasets and compressed result files.
//
// # Overview
//
// Four algorithms are supported besides None:
//   - Gzip: wide compatibility, good compression (.gz)
//   - Zstd: best compression ratio, good speed (.zst)
//   - Snappy: framed snappy stream, fastest to decode (.sz)
//   - LZ4: frame format, extremely fast (.lz4)
//
// # Basic Usage
//
//	w, err := compression.NewWriter(file, compression.Zstd, compression.Default)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
// Readers are chosen by file extension:
//
//	algo := compression.DetectFromPath("trees.csv.gz")
//	r, err := compression.NewReader(file, algo)
package compression

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents framed snappy compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
)

// Level represents compression level, controlling the trade-off between
// compression speed and compression ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

var extensions = map[Algorithm]string{
	None:   "",
	Gzip:   ".gz",
	Zstd:   ".zst",
	Snappy: ".sz",
	LZ4:    ".lz4",
}

// ParseAlgorithm converts a configured name into an Algorithm. The empty
// string means None.
func ParseAlgorithm(name string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	if a == "" {
		return None, nil
	}
	if _, ok := extensions[a]; !ok {
		return "", fmt.Errorf("unsupported compression algorithm: %s", name)
	}
	return a, nil
}

// Extension returns the file suffix conventionally used for a, including the
// leading dot. None has no suffix.
func Extension(a Algorithm) string {
	return extensions[a]
}

// DetectFromPath infers the algorithm from the file extension of path.
// Unknown extensions mean None.
func DetectFromPath(path string) Algorithm {
	lower := strings.ToLower(path)
	for algo, ext := range extensions {
		if ext != "" && strings.HasSuffix(lower, ext) {
			return algo
		}
	}
	return None
}

// NewWriter wraps dst in a compressing writer. Closing the returned writer
// flushes the codec but does not close dst.
func NewWriter(dst io.Writer, algo Algorithm, level Level) (io.WriteCloser, error) {
	switch algo {
	case None, "":
		return nopWriteCloser{dst}, nil
	case Gzip:
		return gzip.NewWriterLevel(dst, mapGzipLevel(level))
	case Zstd:
		return zstd.NewWriter(dst, zstd.WithEncoderLevel(mapZstdLevel(level)))
	case Snappy:
		return snappy.NewBufferedWriter(dst), nil
	case LZ4:
		w := lz4.NewWriter(dst)
		if err := w.Apply(lz4.CompressionLevelOption(mapLZ4Level(level))); err != nil {
			return nil, err
		}
		return w, nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", algo)
	}
}

// NewReader wraps src in a decompressing reader. Closing the returned reader
// releases codec resources but does not close src.
func NewReader(src io.Reader, algo Algorithm) (io.ReadCloser, error) {
	switch algo {
	case None, "":
		return io.NopCloser(src), nil
	case Gzip:
		return gzip.NewReader(src)
	case Zstd:
		d, err := zstd.NewReader(src)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{d}, nil
	case Snappy:
		return io.NopCloser(snappy.NewReader(src)), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(src)), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", algo)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// zstd.Decoder.Close has no error result
type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// Helper functions to map levels

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Default:
		return gzip.DefaultCompression
	case Better:
		return 7
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Default:
		return zstd.SpeedDefault
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Better:
		return lz4.Level6
	case Best:
		return lz4.Level9
	default:
		return lz4.Level4
	}
}

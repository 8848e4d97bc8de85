package export

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression algorithms
const (
	CompressionNone = ""
	CompressionGzip = "gzip"
	CompressionZstd = "zstd"
)

// CompressSink compresses artifacts before handing them to the next sink.
type CompressSink struct {
	next      Sink
	algorithm string
}

// NewCompressSink wraps next. An empty algorithm returns next unchanged.
func NewCompressSink(next Sink, algorithm string) (Sink, error) {
	switch algorithm {
	case CompressionNone:
		return next, nil
	case CompressionGzip, CompressionZstd:
		return &CompressSink{next: next, algorithm: algorithm}, nil
	default:
		return nil, fmt.Errorf("unsupported algorithm: %s", algorithm)
	}
}

// NewGzipSink wraps next with gzip compression.
func NewGzipSink(next Sink) Sink {
	return &CompressSink{next: next, algorithm: CompressionGzip}
}

func (c *CompressSink) Name() string { return c.next.Name() + "+" + c.algorithm }

// Extension is the suffix appended to artifact names.
func (c *CompressSink) Extension() string {
	if c.algorithm == CompressionZstd {
		return ".zst"
	}
	return ".gz"
}

func (c *CompressSink) Put(ctx context.Context, name string, data io.Reader) error {
	var compressed bytes.Buffer

	switch c.algorithm {
	case CompressionGzip:
		gw := gzip.NewWriter(&compressed)
		gw.Name = name
		if _, err := io.Copy(gw, data); err != nil {
			return fmt.Errorf("compress data: %w", err)
		}
		if err := gw.Close(); err != nil {
			return fmt.Errorf("close gzip writer: %w", err)
		}
	case CompressionZstd:
		zw, err := zstd.NewWriter(&compressed, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return fmt.Errorf("create zstd writer: %w", err)
		}
		if _, err := io.Copy(zw, data); err != nil {
			_ = zw.Close()
			return fmt.Errorf("compress data: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("close zstd writer: %w", err)
		}
	default:
		return fmt.Errorf("unsupported algorithm: %s", c.algorithm)
	}

	return c.next.Put(ctx, name+c.Extension(), &compressed)
}

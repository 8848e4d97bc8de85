// Package export writes run artifacts (CSV files, the JSON report) to
// local disk, S3, or both.
package export

import (
	"bytes"
	"context"
	"errors"
	"io"
)

// Sink stores a named artifact.
type Sink interface {
	Put(ctx context.Context, name string, data io.Reader) error
	Name() string
}

// Fanout writes every artifact to all of its sinks.
type Fanout []Sink

func (f Fanout) Name() string { return "fanout" }

// Put buffers data once and hands each sink its own reader. All sinks are
// attempted; their errors are joined.
func (f Fanout) Put(ctx context.Context, name string, data io.Reader) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	var errs []error
	for _, s := range f {
		if err := s.Put(ctx, name, bytes.NewReader(buf)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PutBytes is a convenience wrapper for in-memory artifacts.
func PutBytes(ctx context.Context, s Sink, name string, data []byte) error {
	return s.Put(ctx, name, bytes.NewReader(data))
}

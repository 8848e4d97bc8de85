package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalSink writes artifacts under a base directory.
type LocalSink struct {
	basePath string
	logger   *zap.Logger
}

// NewLocalSink creates a sink rooted at basePath.
func NewLocalSink(basePath string, logger *zap.Logger) *LocalSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalSink{basePath: basePath, logger: logger}
}

func (s *LocalSink) Name() string { return "local" }

// Path returns where name is stored.
func (s *LocalSink) Path(name string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(name))
}

// Put writes to a temporary file and renames it into place, so readers
// never observe a partial artifact.
func (s *LocalSink) Put(ctx context.Context, name string, data io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" || strings.Contains(name, "..") {
		return fmt.Errorf("local sink: invalid name %q", name)
	}

	fullPath := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".labelbench-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	n, err := io.Copy(tmp, data)
	if err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}

	s.logger.Debug("LocalSink.Put",
		zap.String("name", name),
		zap.String("fullPath", fullPath),
		zap.Int64("bytes", n))
	return nil
}

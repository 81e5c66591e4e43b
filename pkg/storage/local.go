package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"
)

// Local writes uploads into a directory served under a public prefix.
type Local struct {
	dir    string
	prefix string
	logger *zap.Logger
}

// NewLocal creates the upload directory if it does not exist.
func NewLocal(dir, publicPrefix string, logger *zap.Logger) (*Local, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Local{dir: dir, prefix: publicPrefix, logger: logger}, nil
}

// Dir returns the directory files are written to.
func (l *Local) Dir() string { return l.dir }

func (l *Local) Save(ctx context.Context, name, _ string, body io.Reader, _ int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := CleanName(name)
	if err != nil {
		return "", err
	}
	f, err := os.Create(filepath.Join(l.dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	l.logger.Info("upload saved", zap.String("name", name), zap.Int64("bytes", n))
	return path.Join("/", l.prefix, name), nil
}

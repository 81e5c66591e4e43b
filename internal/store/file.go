package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// fileNames keeps the on-disk names used by existing deployments.
var fileNames = map[Collection]string{
	Questions:     "Question.json",
	QuizResponses: "Quiz.json",
	Teams:         "Teams.json",
	Modules:       "Modules.json",
	Users:         "Role.json",
}

// FileBackend keeps each collection in its own JSON file under a data directory.
type FileBackend struct {
	dir    string
	logger *zap.Logger

	mu    sync.Mutex
	locks map[Collection]*sync.RWMutex
}

// NewFileBackend creates the data directory if needed.
func NewFileBackend(dir string, logger *zap.Logger) (*FileBackend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileBackend{dir: dir, logger: logger, locks: make(map[Collection]*sync.RWMutex)}, nil
}

// Path returns the file backing a collection.
func (b *FileBackend) Path(c Collection) string {
	name, ok := fileNames[c]
	if !ok {
		name = string(c) + ".json"
	}
	return filepath.Join(b.dir, name)
}

func (b *FileBackend) lock(c Collection) *sync.RWMutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.locks[c]
	if !ok {
		l = &sync.RWMutex{}
		b.locks[c] = l
	}
	return l
}

func (b *FileBackend) Read(ctx context.Context, c Collection) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l := b.lock(c)
	l.RLock()
	defer l.RUnlock()
	return b.readFile(c)
}

func (b *FileBackend) readFile(c Collection) ([]byte, error) {
	data, err := os.ReadFile(b.Path(c))
	if errors.Is(err, os.ErrNotExist) {
		return []byte("[]"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.Path(c), err)
	}
	return data, nil
}

func (b *FileBackend) Update(ctx context.Context, c Collection, fn func([]byte) ([]byte, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := b.lock(c)
	l.Lock()
	defer l.Unlock()

	current, err := b.readFile(c)
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if bytes.Equal(current, next) {
		return nil
	}
	return b.writeFile(c, next)
}

// writeFile replaces the collection through a temp file so readers never see a partial document.
func (b *FileBackend) writeFile(c Collection, data []byte) error {
	path := b.Path(c)
	tmp, err := os.CreateTemp(b.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	b.logger.Debug("collection written", zap.String("collection", string(c)), zap.Int("bytes", len(data)))
	return nil
}

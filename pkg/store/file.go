package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/matzehuels/changeover/pkg/errors"
)

// FileStore stores runs as JSON files in a directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based run store.
// If baseDir is empty, defaults to ~/.config/changeover/runs/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "changeover", "runs")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) runPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

// Save writes run to <dir>/<id>.json. IDs must be UUIDs so they are safe
// file names.
func (s *FileStore) Save(ctx context.Context, run *Run) error {
	if err := uuid.Validate(run.ID); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "run id %q", run.ID)
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.runPath(run.ID), data, 0o644); err != nil {
		return fmt.Errorf("write run file: %w", err)
	}
	return nil
}

// Get reads the run with the given ID.
func (s *FileStore) Get(ctx context.Context, id string) (*Run, error) {
	if uuid.Validate(id) != nil {
		return nil, errors.New(errors.ErrCodeRunNotFound, "run %s not found", id)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(s.runPath(id), id)
}

func (s *FileStore) read(path, id string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeRunNotFound, "run %s not found", id)
		}
		return nil, fmt.Errorf("read run file: %w", err)
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("parse run %s: %w", id, err)
	}
	return &run, nil
}

// List returns up to limit runs, newest first. Unreadable files are skipped.
func (s *FileStore) List(ctx context.Context, limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read run dir: %w", err)
	}
	var runs []*Run
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := entry.Name()[:len(entry.Name())-len(".json")]
		run, err := s.read(filepath.Join(s.baseDir, entry.Name()), id)
		if err != nil {
			continue
		}
		runs = append(runs, run)
	}
	sortNewestFirst(runs)
	return runs[:min(len(runs), listLimit(limit))], nil
}

// Close does nothing.
func (s *FileStore) Close() error { return nil }

// Path returns the base directory for run files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)

package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/changeover/pkg/errors"
)

// Memory is an in-process run store. Runs are lost when the process exits.
type Memory struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{runs: make(map[string]*Run)}
}

// Save stores a copy of run.
func (m *Memory) Save(ctx context.Context, run *Run) error {
	if run.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "run has no ID")
	}
	cp := *run
	m.mu.Lock()
	m.runs[run.ID] = &cp
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the run with the given ID.
func (m *Memory) Get(ctx context.Context, id string) (*Run, error) {
	m.mu.RLock()
	r, ok := m.runs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeRunNotFound, "run %s not found", id)
	}
	cp := *r
	return &cp, nil
}

// List returns up to limit runs, newest first.
func (m *Memory) List(ctx context.Context, limit int) ([]*Run, error) {
	m.mu.RLock()
	out := make([]*Run, 0, len(m.runs))
	for _, r := range m.runs {
		cp := *r
		out = append(out, &cp)
	}
	m.mu.RUnlock()

	sortNewestFirst(out)
	return out[:min(len(out), listLimit(limit))], nil
}

// Close does nothing.
func (m *Memory) Close() error { return nil }

func sortNewestFirst(runs []*Run) {
	slices.SortFunc(runs, func(a, b *Run) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

var _ Store = (*Memory)(nil)

package store

import (
	"context"
	"sync"

	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/report"
)

// MemoryStore keeps reports in a map.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*report.Report
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string]*report.Report)}
}

func (s *MemoryStore) Save(_ context.Context, r *report.Report) error {
	if r.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "report has no ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.ID] = r
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "report %q not found", id)
	}
	return r, nil
}

func (s *MemoryStore) List(_ context.Context, event string) ([]*report.Report, error) {
	s.mu.RLock()
	out := make([]*report.Report, 0, len(s.reports))
	for _, r := range s.reports {
		if event == "" || r.Event == event {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()
	newestFirst(out)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ report.Store = (*MemoryStore)(nil)

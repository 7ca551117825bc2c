// Package memstore provides an in-memory implementation of pipeline.Store.
package memstore

import (
	"context"
	"sync"

	"github.com/linnemanlabs/beacon/internal/pipeline"
)

// maxReports bounds memory: oldest reports are discarded beyond this.
const maxReports = 1000

// Store holds cycle reports in memory. Suitable for dev and for running
// without a database.
type Store struct {
	mu      sync.RWMutex
	reports map[string]*pipeline.CycleReport // report ID -> report
	order   []string                         // insertion order, for pruning and Latest
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{reports: make(map[string]*pipeline.CycleReport)}
}

// Put stores a copy of the report, pruning the oldest once over capacity.
func (s *Store) Put(_ context.Context, r *pipeline.CycleReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	cp := *r
	s.reports[r.ID] = &cp

	for len(s.order) > maxReports {
		delete(s.reports, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

// Get retrieves a report by ID. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*pipeline.CycleReport, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	return &cp, true, nil
}

// Latest returns the most recently stored report. Returns a copy.
func (s *Store) Latest(_ context.Context) (*pipeline.CycleReport, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return nil, false, nil
	}
	cp := *s.reports[s.order[len(s.order)-1]]
	return &cp, true, nil
}

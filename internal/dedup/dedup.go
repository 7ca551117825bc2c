// Package dedup provides a bounded identity cache that prevents the
// escalation pipeline from reprocessing event IDs it has already seen.
package dedup

import "fmt"

// SeenSet remembers up to capacity event IDs in insertion order. Once an
// insert pushes the set over capacity, the oldest entries are evicted in
// batches to amortize cleanup cost.
//
// SeenSet is not safe for concurrent use. The pipeline's scheduler goroutine
// is the sole writer; it always calls IsNew and MarkSeen as a pair within a
// single cycle, so no atomic check-and-set is needed. Guard with a mutex if
// concurrent cycles are ever introduced.
type SeenSet struct {
	capacity   int
	evictBatch int
	order      []string
	members    map[string]struct{}
}

// New creates a SeenSet. Capacity must be positive; evictBatch values
// below 1 are clamped to 1.
func New(capacity, evictBatch int) (*SeenSet, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("dedup: capacity must be positive, got %d", capacity)
	}
	if evictBatch < 1 {
		evictBatch = 1
	}
	return &SeenSet{
		capacity:   capacity,
		evictBatch: evictBatch,
		members:    make(map[string]struct{}, capacity),
	}, nil
}

// IsNew reports whether id has not been marked seen. Pure query, no side
// effects. An empty string is a valid identity token; records with no ID at
// all must be dropped by the source adapter before they get here.
func (s *SeenSet) IsNew(id string) bool {
	_, ok := s.members[id]
	return !ok
}

// MarkSeen records id. When an insert pushes the set over capacity, the
// oldest evictBatch entries are removed from both the order list and the
// membership set in one pass, so subsequent inserts proceed without eviction
// until the freed headroom is used up.
func (s *SeenSet) MarkSeen(id string) {
	if _, ok := s.members[id]; ok {
		return
	}
	s.order = append(s.order, id)
	s.members[id] = struct{}{}

	if len(s.members) <= s.capacity {
		return
	}
	n := s.evictBatch
	if len(s.order) < n {
		n = len(s.order)
	}
	for _, old := range s.order[:n] {
		delete(s.members, old)
	}
	s.order = append(s.order[:0:0], s.order[n:]...)
}

// Len returns the number of IDs currently tracked.
func (s *SeenSet) Len() int { return len(s.members) }

// Capacity returns the configured maximum size.
func (s *SeenSet) Capacity() int { return s.capacity }

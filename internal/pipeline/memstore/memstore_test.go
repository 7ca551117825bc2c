package memstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/linnemanlabs/beacon/internal/pipeline"
)

func TestPutGet(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	r := &pipeline.CycleReport{ID: "r1", Cycle: 1, EventCount: 3}
	if err := s.Put(ctx, r); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := s.Get(ctx, "r1")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.EventCount != 3 {
		t.Errorf("EventCount = %d, want 3", got.EventCount)
	}

	// Stored value must be a copy.
	got.EventCount = 99
	again, _, _ := s.Get(ctx, "r1")
	if again.EventCount != 3 {
		t.Error("Get should return copies, mutation leaked into store")
	}
}

func TestGet_Missing(t *testing.T) {
	t.Parallel()

	_, ok, err := New().Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected ok=false for missing report")
	}
}

func TestLatest(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	if _, ok, _ := s.Latest(ctx); ok {
		t.Error("Latest on empty store should report ok=false")
	}

	_ = s.Put(ctx, &pipeline.CycleReport{ID: "r1", Cycle: 1})
	_ = s.Put(ctx, &pipeline.CycleReport{ID: "r2", Cycle: 2})

	got, ok, err := s.Latest(ctx)
	if err != nil || !ok {
		t.Fatalf("Latest: ok=%v err=%v", ok, err)
	}
	if got.ID != "r2" {
		t.Errorf("Latest = %q, want r2", got.ID)
	}
}

func TestPut_PrunesOldest(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	for i := 0; i < maxReports+10; i++ {
		_ = s.Put(ctx, &pipeline.CycleReport{ID: fmt.Sprintf("r%d", i)})
	}

	if len(s.reports) != maxReports {
		t.Errorf("stored = %d, want capped at %d", len(s.reports), maxReports)
	}
	if _, ok, _ := s.Get(ctx, "r0"); ok {
		t.Error("oldest report should have been pruned")
	}
}

package pipeline_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/linnemanlabs/beacon/internal/event"
	"github.com/linnemanlabs/beacon/internal/pipeline"
	"github.com/linnemanlabs/beacon/internal/source"
)

type countingSource struct {
	mu    sync.Mutex
	calls int
}

func (c *countingSource) Search(context.Context, source.Window) ([]event.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return nil, nil
}

func (c *countingSource) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestSchedulerRunsCyclesUntilCancelled(t *testing.T) {
	t.Parallel()

	src := &countingSource{}
	p := newTestPipeline(t, pipeline.Options{Source: src})

	s := pipeline.NewScheduler(p, 5*time.Millisecond, time.Second, nil)
	if s.Interval() != 5*time.Millisecond {
		t.Fatalf("Interval = %v, want 5ms", s.Interval())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for src.count() < 2 {
		select {
		case <-deadline:
			t.Fatal("scheduler never fired two cycles")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

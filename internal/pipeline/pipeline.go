package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/beacon/internal/analyze"
	"github.com/linnemanlabs/beacon/internal/dedup"
	"github.com/linnemanlabs/beacon/internal/event"
	"github.com/linnemanlabs/beacon/internal/source"
)

// Emitter forwards one event to a downstream webhook.
type Emitter interface {
	Emit(ctx context.Context, ev event.Event) error
}

// Sender delivers a short notification message.
type Sender interface {
	Send(ctx context.Context, body string) error
}

// RemedyStarter kicks off a background remediation job and returns its ID.
type RemedyStarter interface {
	Start(ctx context.Context, instruction string) (string, error)
}

// Options configures a Pipeline. Source, Seen, and Store are required. The
// four downstream collaborators are each optional; a nil collaborator
// disables that action without touching the rest of the orchestration.
type Options struct {
	Source     source.Source
	Seen       *dedup.SeenSet
	Store      Store
	Logger     log.Logger
	Metrics    *Metrics
	Webhook    Emitter
	Summarizer analyze.Summarizer
	SMS        Sender
	Remedy     RemedyStarter

	// Lookback bounds the first cycle's query window. Later cycles query
	// from the previous cycle's end.
	Lookback time.Duration

	// BaseContext outlives individual cycles and parents detached work
	// such as remediation tracking, so a cycle timeout does not abandon
	// a job but process shutdown does. Defaults to context.Background().
	BaseContext context.Context
}

// Pipeline drives one poll-dedupe-escalate cycle at a time. It owns the
// dedup cache and the query watermark; neither is shared globally.
type Pipeline struct {
	source     source.Source
	seen       *dedup.SeenSet
	store      Store
	logger     log.Logger
	metrics    *Metrics
	webhook    Emitter
	summarizer analyze.Summarizer
	sms        Sender
	remedy     RemedyStarter
	lookback   time.Duration
	baseCtx    context.Context

	// runMu serializes cycles: the scheduler and the manual trigger
	// endpoint may both call RunCycle, and the SeenSet requires a single
	// writer.
	runMu         sync.Mutex
	cycle         uint64
	lastProcessed time.Time
}

// New creates a Pipeline from options.
func New(opts Options) (*Pipeline, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("pipeline: source is required")
	}
	if opts.Seen == nil {
		return nil, fmt.Errorf("pipeline: seen set is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("pipeline: store is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.Lookback <= 0 {
		opts.Lookback = 4 * time.Hour
	}
	if opts.BaseContext == nil {
		opts.BaseContext = context.Background()
	}
	return &Pipeline{
		source:     opts.Source,
		seen:       opts.Seen,
		store:      opts.Store,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		webhook:    opts.Webhook,
		summarizer: opts.Summarizer,
		sms:        opts.SMS,
		remedy:     opts.Remedy,
		lookback:   opts.Lookback,
		baseCtx:    opts.BaseContext,
	}, nil
}

// RunCycle executes one poll cycle and always returns a report; collaborator
// failures are recorded in the report, never raised. Safe to call from the
// scheduler and the manual trigger concurrently; cycles are serialized.
func (p *Pipeline) RunCycle(ctx context.Context) *CycleReport {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	start := time.Now()
	p.cycle++

	windowStart := p.lastProcessed
	if windowStart.IsZero() {
		windowStart = start.Add(-p.lookback)
	}

	report := &CycleReport{
		ID:          ulid.Make().String(),
		Cycle:       p.cycle,
		WindowStart: windowStart,
		WindowEnd:   start,
		StartedAt:   start,
	}

	L := p.logger.With("cycle", report.Cycle, "report_id", report.ID)

	events, err := p.source.Search(ctx, source.Window{From: windowStart, To: start})
	if err != nil {
		// Leave the watermark so the next cycle retries the same window.
		L.Error(ctx, err, "event source query failed")
		report.SourceError = err.Error()
		p.finish(ctx, L, report)
		return report
	}
	p.lastProcessed = start

	// Events arrive in ascending timestamp order; the batch preserves it so
	// downstream notifications read chronologically. All IDs are marked
	// seen before any downstream action runs: delivery is at-least-once,
	// and a failed action never re-queues the batch.
	batch := make([]event.Event, 0, len(events))
	for _, ev := range events {
		if !p.seen.IsNew(ev.ID) {
			report.Skipped++
			continue
		}
		p.seen.MarkSeen(ev.ID)
		batch = append(batch, ev)
	}
	report.EventCount = len(batch)

	if p.metrics != nil {
		p.metrics.EventsTotal.Add(float64(len(batch)))
		p.metrics.EventsSkipped.Add(float64(report.Skipped))
		p.metrics.SeenSetSize.Set(float64(p.seen.Len()))
	}

	if len(batch) == 0 {
		p.finish(ctx, L, report)
		return report
	}

	lines := make([]string, len(batch))
	for i, ev := range batch {
		lines[i] = ev.Format()
	}
	report.Lines = lines
	joined := strings.Join(lines, "\n\n")

	if p.metrics != nil {
		p.metrics.BatchSize.Observe(float64(len(batch)))
	}

	// The batch is final and marked seen; the four downstream actions share
	// no mutable state and run concurrently. Each is best-effort and writes
	// only its own report fields.
	var wg sync.WaitGroup

	if p.webhook != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.emitWebhooks(ctx, L, batch, report)
		}()
	}

	if p.summarizer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.summarize(ctx, L, joined, report)
		}()
	}

	if p.sms != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.notifySMS(ctx, L, len(batch), report)
		}()
	}

	if p.remedy != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.startRemediation(ctx, L, joined, report)
		}()
	}

	wg.Wait()

	p.finish(ctx, L, report)
	return report
}

// emitWebhooks posts one payload per event, in batch (chronological) order.
// Individual failures are counted; the first is kept for the report.
func (p *Pipeline) emitWebhooks(ctx context.Context, L log.Logger, batch []event.Event, report *CycleReport) {
	var delivered int
	var firstErr error
	for _, ev := range batch {
		err := p.webhook.Emit(ctx, ev)
		if p.metrics != nil {
			p.metrics.observeDelivery("webhook", err)
		}
		if err != nil {
			L.Warn(ctx, "webhook delivery failed", "event_id", ev.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		delivered++
	}
	report.WebhookDelivered = delivered
	if firstErr != nil {
		report.WebhookError = fmt.Sprintf("%d/%d delivered, first failure: %v", delivered, len(batch), firstErr)
	}
}

// summarize sends the whole batch for combined-context analysis. On any
// failure the fallback explanation is used and the extraction heuristics
// still run against the raw text.
func (p *Pipeline) summarize(ctx context.Context, L log.Logger, joined string, report *CycleReport) {
	summary, err := p.summarizer.Summarize(ctx, joined)
	if p.metrics != nil {
		p.metrics.observeDelivery("summarize", err)
	}
	if err != nil {
		L.Warn(ctx, "summarization failed", "error", err)
		report.SummaryError = err.Error()
		summary = analyze.FallbackExplanation
	}
	a := analyze.New(summary, joined)
	report.Analysis = &a
}

func (p *Pipeline) notifySMS(ctx context.Context, L log.Logger, count int, report *CycleReport) {
	msg := fmt.Sprintf("beacon: %d new error event(s) detected, escalation started", count)
	err := p.sms.Send(ctx, msg)
	if p.metrics != nil {
		p.metrics.observeDelivery("sms", err)
	}
	if err != nil {
		L.Warn(ctx, "sms notification failed", "error", err)
		report.SMSError = err.Error()
	}
}

// startRemediation submits the batch to the remediation tracker. Only the
// submission happens inside the cycle; polling continues in the tracker's
// own goroutine under the base context, so a cycle timeout does not abandon
// the job but process shutdown does.
func (p *Pipeline) startRemediation(ctx context.Context, L log.Logger, joined string, report *CycleReport) {
	jobID, err := p.remedy.Start(p.baseCtx, instruction(joined))
	if p.metrics != nil {
		p.metrics.observeDelivery("remedy", err)
	}
	if err != nil {
		L.Warn(ctx, "remediation start failed", "error", err)
		report.RemedyError = err.Error()
		return
	}
	report.RemediationJobID = jobID
	L.Info(ctx, "remediation job started", "job_id", jobID)
}

func instruction(errorText string) string {
	return fmt.Sprintf("Fix the following exception: %s\n\nAfter making the fix, create a pull request to the main branch.", errorText)
}

func (p *Pipeline) finish(ctx context.Context, L log.Logger, report *CycleReport) {
	report.CompletedAt = time.Now()
	report.Duration = report.CompletedAt.Sub(report.StartedAt).Seconds()

	outcome := report.Outcome()
	if p.metrics != nil {
		p.metrics.CyclesTotal.WithLabelValues(outcome).Inc()
		p.metrics.CycleDuration.WithLabelValues(outcome).Observe(report.Duration)
	}

	if err := p.store.Put(ctx, report); err != nil {
		L.Error(ctx, err, "failed to persist cycle report")
	}

	L.Info(ctx, "cycle complete",
		"outcome", outcome,
		"events", report.EventCount,
		"skipped", report.Skipped,
		"duration", report.Duration,
	)
}

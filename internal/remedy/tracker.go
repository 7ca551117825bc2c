package remedy

import (
	"context"
	"sync"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"
)

// JobStatus tracks where a remediation job is in its lifecycle. Transitions
// are forward-only: pending -> running -> {succeeded, failed, timed_out}.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusSucceeded JobStatus = "succeeded"
	StatusFailed    JobStatus = "failed"
	StatusTimedOut  JobStatus = "timed_out"
)

// Terminal reports whether a status ends the job.
func (s JobStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusTimedOut
}

// Job is one tracked remediation attempt. ResultRef is set if and only if
// the job succeeded.
type Job struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Status         JobStatus `json:"status"`
	ResultRef      string    `json:"result_ref,omitempty"`
	PollCount      int       `json:"poll_count"`
	StartedAt      time.Time `json:"started_at"`
}

// Collaborator statuses that end a conversation unsuccessfully.
func terminalError(status string) bool {
	return status == "error" || status == "failed"
}

const (
	defaultGrace    = 20 * time.Second
	defaultInterval = 10 * time.Second
	defaultMaxPolls = 30
)

// Tracker starts remediation jobs and polls each one in a background
// goroutine until a terminal status or the poll budget runs out. The main
// pipeline cycle never blocks on a tracker.
type Tracker struct {
	api    API
	logger log.Logger

	grace    time.Duration
	interval time.Duration
	maxPolls int

	// OnTerminal, if set, is invoked once per job with its final status.
	// Wired to metrics by main; must not block.
	OnTerminal func(JobStatus)

	mu   sync.Mutex
	jobs map[string]*Job
}

// NewTracker creates a tracker with the standard polling policy: a 20s
// grace period before the first poll, 10s between polls, 30 poll budget.
func NewTracker(api API, logger log.Logger) *Tracker {
	if logger == nil {
		logger = log.Nop()
	}
	return &Tracker{
		api:      api,
		logger:   logger,
		grace:    defaultGrace,
		interval: defaultInterval,
		maxPolls: defaultMaxPolls,
		jobs:     make(map[string]*Job),
	}
}

// Start issues the remediation request and returns the new job's local ID
// immediately with the job in pending state. Polling continues in the
// background until ctx is cancelled or the job reaches a terminal status.
func (t *Tracker) Start(ctx context.Context, instruction string) (string, error) {
	convID, err := t.api.Start(ctx, instruction)
	if err != nil {
		return "", err
	}

	job := &Job{
		ID:             ulid.Make().String(),
		ConversationID: convID,
		Status:         StatusPending,
		StartedAt:      time.Now(),
	}

	t.mu.Lock()
	t.jobs[job.ID] = job
	t.mu.Unlock()

	go t.track(ctx, job.ID, convID)
	return job.ID, nil
}

// Get returns a copy of a tracked job.
func (t *Tracker) Get(id string) (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

func (t *Tracker) track(ctx context.Context, jobID, convID string) {
	L := t.logger.With("job_id", jobID, "conversation_id", convID)

	wait := t.grace
	for poll := 1; poll <= t.maxPolls; poll++ {
		select {
		case <-ctx.Done():
			L.Info(ctx, "remediation tracking abandoned", "polls", poll-1)
			return
		case <-time.After(wait):
		}
		wait = t.interval

		res, err := t.api.Poll(ctx, convID)
		t.mu.Lock()
		job := t.jobs[jobID]
		job.PollCount = poll
		if err != nil {
			// Transient: log, keep polling, budget still consumed.
			t.mu.Unlock()
			L.Warn(ctx, "remediation poll failed", "poll", poll, "error", err)
			continue
		}

		if job.Status == StatusPending {
			job.Status = StatusRunning
		}

		// A non-empty result reference is the sole success signal; an
		// in-progress job can carry an early partial result, and the
		// textual status field is not trusted either way.
		switch {
		case res.ResultRef != "":
			job.Status = StatusSucceeded
			job.ResultRef = res.ResultRef
		case terminalError(res.Status):
			job.Status = StatusFailed
		}

		status := job.Status
		ref := job.ResultRef
		t.mu.Unlock()

		if status.Terminal() {
			L.Info(ctx, "remediation finished", "status", status, "result_ref", ref, "polls", poll)
			t.finish(status)
			return
		}
	}

	t.mu.Lock()
	job := t.jobs[jobID]
	job.Status = StatusTimedOut
	t.mu.Unlock()

	L.Warn(ctx, "remediation poll budget exhausted", "polls", t.maxPolls)
	t.finish(StatusTimedOut)
}

func (t *Tracker) finish(status JobStatus) {
	if t.OnTerminal != nil {
		t.OnTerminal(status)
	}
}

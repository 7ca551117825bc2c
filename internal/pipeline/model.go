package pipeline

import (
	"time"

	"github.com/linnemanlabs/beacon/internal/analyze"
)

// CycleReport records what one poll cycle saw and did. Every collaborator
// failure lands in a report field instead of aborting the cycle: operators
// read reports, the scheduler never crash-loops.
type CycleReport struct {
	ID          string    `json:"id"`
	Cycle       uint64    `json:"cycle"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`

	// EventCount is the number of events that survived deduplication.
	EventCount int      `json:"event_count"`
	Skipped    int      `json:"skipped"`
	Lines      []string `json:"lines,omitempty"`

	Analysis         *analyze.Analysis `json:"analysis,omitempty"`
	RemediationJobID string            `json:"remediation_job_id,omitempty"`
	WebhookDelivered int               `json:"webhook_delivered"`

	// Per-stage failures, empty when the stage succeeded or was skipped.
	SourceError  string `json:"source_error,omitempty"`
	WebhookError string `json:"webhook_error,omitempty"`
	SummaryError string `json:"summary_error,omitempty"`
	SMSError     string `json:"sms_error,omitempty"`
	RemedyError  string `json:"remedy_error,omitempty"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	Duration    float64   `json:"duration_seconds,omitempty"`
}

// Outcome classifies a finished cycle for metrics and logs.
func (r *CycleReport) Outcome() string {
	switch {
	case r.SourceError != "":
		return "source_error"
	case r.EventCount == 0:
		return "empty"
	default:
		return "escalated"
	}
}

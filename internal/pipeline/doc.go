// Package pipeline is the business boundary of beacon's escalation system.
// It defines the Pipeline (poll, dedupe, fan out to downstream actions),
// the CycleReport model, the Scheduler that drives fixed-interval cycles,
// and the Store interface for report persistence.
package pipeline

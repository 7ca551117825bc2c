package pipeline

import "context"

// Store is the persistence interface for cycle reports.
type Store interface {
	Put(ctx context.Context, report *CycleReport) error
	Get(ctx context.Context, id string) (*CycleReport, bool, error)
	Latest(ctx context.Context) (*CycleReport, bool, error)
}

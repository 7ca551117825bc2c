// Package source adapts an external log store into the pipeline's Event
// model. A Source performs one windowed, filtered query per pipeline cycle.
package source

import (
	"context"
	"time"

	"github.com/linnemanlabs/beacon/internal/event"
)

// Window bounds one query against the log store.
type Window struct {
	From time.Time
	To   time.Time
}

// Source is the query interface the pipeline depends on. Implementations
// must return events in ascending timestamp order and must drop records
// that carry no ID, since the deduplicator treats every returned ID as a
// valid identity token.
type Source interface {
	Search(ctx context.Context, w Window) ([]event.Event, error)
}

// ErrorFilter is the default search predicate: exclude our own webhook
// traffic, include anything that looks like an error.
const ErrorFilter = `NOT "webhook" AND (status:error OR @level:error OR @severity:error OR "Error:" OR "Exception:" OR "Failed:")`

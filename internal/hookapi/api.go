// Package hookapi exposes the pipeline over HTTP: manual cycle triggers,
// cycle report lookups, remediation job status, on-demand analysis, and the
// inbound event verification hook.
package hookapi

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/beacon/internal/analyze"
	"github.com/linnemanlabs/beacon/internal/pipeline"
	"github.com/linnemanlabs/beacon/internal/remedy"
)

// CycleRunner triggers one pipeline cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) *pipeline.CycleReport
}

// JobTracker looks up remediation jobs by ID.
type JobTracker interface {
	Get(id string) (remedy.Job, bool)
}

// Status describes the running scheduler configuration, reported by the
// cycle status endpoint.
type Status struct {
	PollInterval string `json:"poll_interval"`
	CycleTimeout string `json:"cycle_timeout"`
	Lookback     string `json:"lookback"`
	Webhook      bool   `json:"webhook_enabled"`
	Summarizer   bool   `json:"summarizer_enabled"`
	SMS          bool   `json:"sms_enabled"`
	Remediation  bool   `json:"remediation_enabled"`
}

// API holds dependencies for HTTP handlers. Tracker and Summarizer are
// optional; their endpoints answer 404 / degrade when unset. Status is
// filled by main after construction.
type API struct {
	logger     log.Logger
	runner     CycleRunner
	store      pipeline.Store
	tracker    JobTracker
	summarizer analyze.Summarizer

	Status Status
}

// New creates a new API handler.
func New(logger log.Logger, runner CycleRunner, store pipeline.Store, tracker JobTracker, summarizer analyze.Summarizer) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if runner == nil {
		panic(xerrors.New("cycle runner is required"))
	}
	if store == nil {
		panic(xerrors.New("report store is required"))
	}
	return &API{
		logger:     logger,
		runner:     runner,
		store:      store,
		tracker:    tracker,
		summarizer: summarizer,
	}
}

// RegisterRoutes attaches API endpoints to the router. auth wraps every
// route except the inbound event hook, which the upstream vendor calls
// without credentials during endpoint verification.
func (a *API) RegisterRoutes(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if auth != nil {
				r.Use(auth)
			}
			r.Post("/cycle", a.handleTriggerCycle)
			r.Get("/cycle", a.handleCycleStatus)
			r.Get("/reports/{id}", a.handleGetReport)
			r.Get("/remediations/{id}", a.handleGetRemediation)
			r.Post("/analyze", a.handleAnalyze)
		})

		r.Get("/hooks/events", a.handleEventHook)
		r.Post("/hooks/events", a.handleEventHook)
	})
}

func (a *API) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("beacon.report.id", id))

	report, ok, err := a.store.Get(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get cycle report", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	span.SetAttributes(attribute.String("beacon.report.outcome", report.Outcome()))

	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleGetRemediation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("beacon.remediation.id", id))

	if a.tracker == nil {
		http.Error(w, `{"error":"remediation disabled"}`, http.StatusNotFound)
		return
	}

	job, ok := a.tracker.Get(id)
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	span.SetAttributes(attribute.String("beacon.remediation.status", string(job.Status)))

	writeJSON(w, http.StatusOK, job)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

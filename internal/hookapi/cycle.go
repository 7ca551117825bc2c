package hookapi

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// handleTriggerCycle runs one cycle synchronously and returns its report.
// Cycles are serialized by the pipeline, so a trigger racing the scheduler
// simply waits its turn.
func (a *API) handleTriggerCycle(w http.ResponseWriter, r *http.Request) {
	a.logger.Info(r.Context(), "manual cycle triggered", "remote", r.RemoteAddr)

	report := a.runner.RunCycle(r.Context())

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("beacon.report.id", report.ID),
		attribute.String("beacon.report.outcome", report.Outcome()),
		attribute.Int("beacon.report.events", report.EventCount),
	)

	writeJSON(w, http.StatusOK, report)
}

// handleCycleStatus reports the scheduler configuration and the most
// recent cycle report, if any cycle has completed yet.
func (a *API) handleCycleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"scheduler": a.Status}

	report, ok, err := a.store.Latest(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get latest cycle report")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if ok {
		resp["latest_report"] = report
	}

	writeJSON(w, http.StatusOK, resp)
}

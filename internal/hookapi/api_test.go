package hookapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/linnemanlabs/beacon/internal/analyze"
	"github.com/linnemanlabs/beacon/internal/authmw"
	"github.com/linnemanlabs/beacon/internal/pipeline"
	"github.com/linnemanlabs/beacon/internal/pipeline/memstore"
	"github.com/linnemanlabs/beacon/internal/remedy"
)

type fakeRunner struct {
	report *pipeline.CycleReport
	calls  int
}

func (f *fakeRunner) RunCycle(context.Context) *pipeline.CycleReport {
	f.calls++
	return f.report
}

type fakeTracker struct {
	jobs map[string]remedy.Job
}

func (f *fakeTracker) Get(id string) (remedy.Job, bool) {
	j, ok := f.jobs[id]
	return j, ok
}

type fakeSummarizer struct {
	summary string
	err     error
}

func (f *fakeSummarizer) Summarize(context.Context, string) (string, error) {
	return f.summary, f.err
}

func testReport() *pipeline.CycleReport {
	return &pipeline.CycleReport{
		ID:         "01TESTREPORT",
		Cycle:      3,
		EventCount: 2,
		StartedAt:  time.Now(),
	}
}

func newTestRouter(t *testing.T, api *API, auth func(http.Handler) http.Handler) chi.Router {
	t.Helper()
	r := chi.NewRouter()
	api.RegisterRoutes(r, auth)
	return r
}

func TestNew_NilRunner_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("New did not panic for nil runner")
		}
	}()
	New(nil, nil, memstore.New(), nil, nil)
}

func TestNew_NilStore_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("New did not panic for nil store")
		}
	}()
	New(nil, &fakeRunner{report: testReport()}, nil, nil, nil)
}

func TestTriggerCycle(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{report: testReport()}
	api := New(nil, runner, memstore.New(), nil, nil)
	r := newTestRouter(t, api, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cycle", http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if runner.calls != 1 {
		t.Errorf("runner calls = %d, want 1", runner.calls)
	}

	var got pipeline.CycleReport
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != "01TESTREPORT" || got.EventCount != 2 {
		t.Errorf("report = %+v, want ID=01TESTREPORT EventCount=2", got)
	}
}

func TestCycleStatus(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	api := New(nil, &fakeRunner{report: testReport()}, store, nil, nil)
	api.Status = Status{PollInterval: "30s", Webhook: true}
	r := newTestRouter(t, api, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cycle", http.NoBody))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var sched Status
	if err := json.Unmarshal(resp["scheduler"], &sched); err != nil {
		t.Fatalf("unmarshal scheduler: %v", err)
	}
	if sched.PollInterval != "30s" || !sched.Webhook {
		t.Errorf("scheduler = %+v, want 30s interval with webhook enabled", sched)
	}
	if _, ok := resp["latest_report"]; ok {
		t.Error("latest_report present before first cycle")
	}

	if err := store.Put(context.Background(), testReport()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cycle", http.NoBody))
	resp = nil
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode after Put: %v", err)
	}
	var latest pipeline.CycleReport
	if err := json.Unmarshal(resp["latest_report"], &latest); err != nil {
		t.Fatalf("unmarshal latest_report: %v", err)
	}
	if latest.ID != "01TESTREPORT" {
		t.Errorf("latest_report ID = %q, want 01TESTREPORT", latest.ID)
	}
}

func TestGetReport(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	report := testReport()
	if err := store.Put(context.Background(), report); err != nil {
		t.Fatalf("Put: %v", err)
	}
	api := New(nil, &fakeRunner{report: report}, store, nil, nil)
	r := newTestRouter(t, api, nil)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"existing report", "/api/v1/reports/01TESTREPORT", http.StatusOK},
		{"missing report", "/api/v1/reports/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))
			if rec.Code != tt.wantStatus {
				t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestGetRemediation(t *testing.T) {
	t.Parallel()

	tracker := &fakeTracker{jobs: map[string]remedy.Job{
		"job-1": {ID: "job-1", Status: remedy.StatusSucceeded, ResultRef: "42"},
	}}
	api := New(nil, &fakeRunner{report: testReport()}, memstore.New(), tracker, nil)
	r := newTestRouter(t, api, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/remediations/job-1", http.NoBody))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var job remedy.Job
	if err := json.NewDecoder(rec.Body).Decode(&job); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if job.Status != remedy.StatusSucceeded || job.ResultRef != "42" {
		t.Errorf("job = %+v, want succeeded with ref 42", job)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/remediations/missing", http.NoBody))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing job status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetRemediation_TrackerDisabled(t *testing.T) {
	t.Parallel()

	api := New(nil, &fakeRunner{report: testReport()}, memstore.New(), nil, nil)
	r := newTestRouter(t, api, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/remediations/any", http.NoBody))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		summarizer      analyze.Summarizer
		body            string
		wantStatus      int
		wantExplanation string
		wantCode        string
	}{
		{
			name:            "summarizer success",
			summarizer:      &fakeSummarizer{summary: "The database timed out."},
			body:            `{"text":"Error: DB_TIMEOUT_01 occurred"}`,
			wantStatus:      http.StatusOK,
			wantExplanation: "The database timed out.",
			wantCode:        "DB_TIMEOUT_01",
		},
		{
			name:            "summarizer failure falls back",
			summarizer:      &fakeSummarizer{err: errors.New("overloaded")},
			body:            `{"text":"HTTP 503 Service Unavailable"}`,
			wantStatus:      http.StatusOK,
			wantExplanation: analyze.FallbackExplanation,
			wantCode:        "503",
		},
		{
			name:            "no summarizer configured",
			summarizer:      nil,
			body:            `{"text":"HTTP 503 Service Unavailable"}`,
			wantStatus:      http.StatusOK,
			wantExplanation: analyze.FallbackExplanation,
			wantCode:        "503",
		},
		{
			name:            "legacy error field",
			summarizer:      &fakeSummarizer{summary: "ok"},
			body:            `{"error":"Error: DB_TIMEOUT_01 occurred"}`,
			wantStatus:      http.StatusOK,
			wantExplanation: "ok",
			wantCode:        "DB_TIMEOUT_01",
		},
		{
			name:       "empty text",
			summarizer: &fakeSummarizer{summary: "ok"},
			body:       `{"text":"  "}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid json",
			summarizer: &fakeSummarizer{summary: "ok"},
			body:       `{bad`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			api := New(nil, &fakeRunner{report: testReport()}, memstore.New(), nil, tt.summarizer)
			r := newTestRouter(t, api, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var got analyze.Analysis
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Explanation != tt.wantExplanation {
				t.Errorf("Explanation = %q, want %q", got.Explanation, tt.wantExplanation)
			}
			if got.ErrorCode != tt.wantCode {
				t.Errorf("ErrorCode = %q, want %q", got.ErrorCode, tt.wantCode)
			}
		})
	}
}

func TestEventHook_ChallengeEcho(t *testing.T) {
	t.Parallel()

	api := New(nil, &fakeRunner{report: testReport()}, memstore.New(), nil, nil)
	r := newTestRouter(t, api, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/hooks/events?challenge=abc-123", http.NoBody))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	// The challenge is echoed verbatim, not wrapped in JSON.
	if rec.Body.String() != "abc-123" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "abc-123")
	}
}

func TestEventHook_Liveness(t *testing.T) {
	t.Parallel()

	api := New(nil, &fakeRunner{report: testReport()}, memstore.New(), nil, nil)
	r := newTestRouter(t, api, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/hooks/events", http.NoBody))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["message"] == "" {
		t.Error("liveness response missing message")
	}
}

func TestEventHook_Post(t *testing.T) {
	t.Parallel()

	api := New(nil, &fakeRunner{report: testReport()}, memstore.New(), nil, nil)
	r := newTestRouter(t, api, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"alert payload", `{"type":"alert","alert":{"id":"a1","status":"firing"}}`, http.StatusOK},
		{"monitor payload", `{"monitor":{"id":"m1","status":"alert"}}`, http.StatusOK},
		{"empty object", `{}`, http.StatusOK},
		{"invalid json", `{bad`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/hooks/events", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestAuth_ProtectsAPIButNotHooks(t *testing.T) {
	t.Parallel()

	api := New(nil, &fakeRunner{report: testReport()}, memstore.New(), nil, nil)
	r := newTestRouter(t, api, authmw.BearerToken("secret"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cycle", http.NoBody))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated trigger = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cycle", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated trigger = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/hooks/events?challenge=x", http.NoBody))
	if rec.Code != http.StatusOK {
		t.Errorf("unauthenticated hook = %d, want %d", rec.Code, http.StatusOK)
	}
}

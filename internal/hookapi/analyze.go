package hookapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linnemanlabs/beacon/internal/analyze"
)

const (
	analyzeTimeout = 30 * time.Second
	maxAnalyzeBody = 1 << 20
)

type analyzeRequest struct {
	Text string `json:"text"`
	// Legacy field name kept for callers posting {"error": "..."}.
	Error string `json:"error"`
}

// handleAnalyze runs the summarizer and extraction heuristics against a
// caller-supplied error text. A summarizer failure degrades to the fixed
// fallback explanation; the heuristics always run.
func (a *API) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxAnalyzeBody))
	if err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	var req analyzeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	text := req.Text
	if text == "" {
		text = req.Error
	}
	if strings.TrimSpace(text) == "" {
		http.Error(w, `{"error":"text is required"}`, http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), analyzeTimeout)
	defer cancel()

	summary := analyze.FallbackExplanation
	if a.summarizer != nil {
		s, err := a.summarizer.Summarize(ctx, text)
		if err != nil {
			a.logger.Warn(ctx, "analysis summarization failed", "error", err)
		} else {
			summary = s
		}
	}

	result := analyze.New(summary, text)
	writeJSON(w, http.StatusOK, result)
}

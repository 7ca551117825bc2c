// Package analyze turns raw error text and free-form summarizer output into
// a structured Analysis: a plain-language explanation plus error code,
// severity, and suggested actions extracted by heuristics.
package analyze

import (
	"context"
	"time"
)

// Summarizer is the generative-text collaborator. Implementations live in
// internal/llm; the pipeline treats the summarizer as optional and
// best-effort.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Severity buckets an analyzed error.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// FallbackExplanation replaces the summarizer output when the call fails or
// its response cannot be parsed. The extraction heuristics still run against
// the raw error text in that case.
const FallbackExplanation = "Unable to analyze this error automatically. Please review the technical details below."

// Analysis is the structured outcome of analyzing one batch of error text.
type Analysis struct {
	OriginalError    string    `json:"original_error"`
	Explanation      string    `json:"explanation"`
	Severity         Severity  `json:"severity"`
	SuggestedActions []string  `json:"suggested_actions"`
	ErrorCode        string    `json:"error_code,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// New builds an Analysis from summarizer output and the original error text.
// Severity and suggested actions come from the summary; the error code comes
// from the original text, where the raw tokens live.
func New(summary, original string) Analysis {
	return Analysis{
		OriginalError:    original,
		Explanation:      summary,
		Severity:         ExtractSeverity(summary),
		SuggestedActions: ExtractActions(summary),
		ErrorCode:        ExtractCode(original),
		Timestamp:        time.Now().UTC(),
	}
}

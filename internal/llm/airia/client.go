// Package airia calls an Airia-style pipeline-execution endpoint to turn
// raw error logs into a plain-language summary.
package airia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/beacon/internal/analyze"
)

const httpTimeout = 30 * time.Second

// The pipeline on the other end is a general text model, so the request
// spells out that this is technical error analysis and what structure the
// answer should carry for the downstream extraction heuristics.
const promptPreamble = `ERROR ANALYSIS REQUEST: Please analyze this technical error log and provide a clear, user-friendly explanation. ERROR LOG TO ANALYZE: `

const promptSuffix = ` Please provide: 1. What this error means in simple terms 2. Severity level (low, medium, high, critical) 3. What actions should be taken to fix it 4. Any additional technical context.`

// Client executes a configured summarization pipeline over HTTP.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// New creates a pipeline-execution client. The endpoint is the full
// execution URL for one deployed pipeline.
func New(endpoint, apiKey string) *Client {
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

type executeRequest struct {
	UserInput   string `json:"userInput"`
	AsyncOutput bool   `json:"asyncOutput"`
}

// Summarize submits text for synchronous analysis and resolves the
// response through the known shape matchers.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(executeRequest{
		UserInput:   promptPreamble + text + promptSuffix,
		AsyncOutput: false,
	})
	if err != nil {
		return "", fmt.Errorf("airia: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("airia: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: endpoint is from trusted config, not user input
	if err != nil {
		return "", fmt.Errorf("airia: execute pipeline: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB
	if err != nil {
		return "", fmt.Errorf("airia: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("airia: pipeline returned %d: %s", resp.StatusCode, string(respBody))
	}

	return analyze.ExtractText(respBody), nil
}

// Package remedy kicks off automated remediation attempts against an
// external PR-bot conversation API and tracks each attempt to a terminal
// outcome.
package remedy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const httpTimeout = 30 * time.Second

// PollResult is one status observation of a running conversation.
type PollResult struct {
	Status        string
	RuntimeStatus string
	ResultRef     string // e.g. the produced PR number; empty until available
}

// API is the conversation collaborator the tracker polls. Start returns the
// remote conversation identifier.
type API interface {
	Start(ctx context.Context, instruction string) (string, error)
	Poll(ctx context.Context, conversationID string) (PollResult, error)
}

// Client talks to an OpenHands-style conversation API.
type Client struct {
	endpoint   string
	apiKey     string
	repository string
	httpClient *http.Client
}

// NewClient creates a remediation API client bound to one target repository.
func NewClient(endpoint, apiKey, repository string) *Client {
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		repository: repository,
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

type startRequest struct {
	InitialUserMsg string `json:"initial_user_msg"`
	Repository     string `json:"repository"`
}

type startResponse struct {
	ConversationID string `json:"conversation_id"`
	ID             string `json:"id"`
	Status         string `json:"status"`
}

// Start opens a remediation conversation and returns its identifier.
func (c *Client) Start(ctx context.Context, instruction string) (string, error) {
	body, err := json.Marshal(startRequest{
		InitialUserMsg: instruction,
		Repository:     c.repository,
	})
	if err != nil {
		return "", fmt.Errorf("remedy: marshal start request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/conversations", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("remedy: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-session-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: endpoint is from trusted config, not user input
	if err != nil {
		return "", fmt.Errorf("remedy: start conversation: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("remedy: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("remedy: start returned %d: %s", resp.StatusCode, string(respBody))
	}

	var sr startResponse
	if err := json.Unmarshal(respBody, &sr); err != nil {
		return "", fmt.Errorf("remedy: decode start response: %w", err)
	}
	id := sr.ConversationID
	if id == "" {
		id = sr.ID
	}
	if id == "" {
		return "", fmt.Errorf("remedy: start response carried no conversation id")
	}
	return id, nil
}

type pollResponse struct {
	Status        string          `json:"status"`
	RuntimeStatus string          `json:"runtime_status"`
	PRNumber      json.RawMessage `json:"pr_number"`
}

// Poll fetches the current conversation state. Network errors and non-2xx
// statuses are returned as errors; the tracker treats them as transient.
func (c *Client) Poll(ctx context.Context, conversationID string) (PollResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/conversations/"+conversationID, http.NoBody)
	if err != nil {
		return PollResult{}, fmt.Errorf("remedy: create request: %w", err)
	}
	req.Header.Set("x-session-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: endpoint is from trusted config, not user input
	if err != nil {
		return PollResult{}, fmt.Errorf("remedy: poll conversation: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return PollResult{}, fmt.Errorf("remedy: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return PollResult{}, fmt.Errorf("remedy: poll returned %d: %s", resp.StatusCode, string(respBody))
	}

	var pr pollResponse
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return PollResult{}, fmt.Errorf("remedy: decode poll response: %w", err)
	}
	return PollResult{
		Status:        pr.Status,
		RuntimeStatus: pr.RuntimeStatus,
		ResultRef:     refString(pr.PRNumber),
	}, nil
}

// refString normalizes the result reference, which arrives as a number or a
// string depending on the collaborator version.
func refString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return string(raw)
}

// Package webhook emits one HTTP POST per escalated event to a configured
// downstream webhook, mirroring the vendor alert payload shape.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/beacon/internal/event"
)

const httpTimeout = 10 * time.Second

// Emitter posts event payloads to a webhook URL.
type Emitter struct {
	url    string
	client *http.Client
}

// New creates a webhook emitter. If url is empty, Emit is a no-op.
func New(url string) *Emitter {
	return &Emitter{
		url:    url,
		client: &http.Client{Timeout: httpTimeout},
	}
}

// Emit posts a single event. Any non-2xx response is a delivery failure.
func (e *Emitter) Emit(ctx context.Context, ev event.Event) error {
	if e.url == "" {
		return nil
	}

	body, err := json.Marshal(buildPayload(ev))
	if err != nil {
		return fmt.Errorf("webhook: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req) //nolint:gosec // G704: url is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("webhook: post event %s: %w", ev.ID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook: event %s returned %d: %s", ev.ID, resp.StatusCode, string(respBody))
	}
	return nil
}

// buildPayload mirrors the vendor webhook shape: alert, event, and monitor
// sub-objects derived from the log record, plus the raw fields under
// logContent for downstream AI processing.
func buildPayload(ev event.Event) map[string]any {
	status, priority := "info", "normal"
	if ev.Level == event.LevelError {
		status, priority = "alert", "high"
	}
	monitorStatus := "ok"
	if ev.Level == event.LevelError {
		monitorStatus = "alert"
	}

	ts := ev.Timestamp.UTC().Format(time.RFC3339)

	return map[string]any{
		"alert": map[string]any{
			"id":        ev.ID,
			"title":     fmt.Sprintf("Log Alert: %s in %s", ev.Level, ev.Service),
			"status":    status,
			"severity":  string(ev.Level),
			"tags":      ev.Tags,
			"message":   ev.Message,
			"timestamp": ts,
		},
		"event": map[string]any{
			"id":        ev.ID,
			"title":     fmt.Sprintf("Log Event: %s", ev.Service),
			"text":      ev.Message,
			"priority":  priority,
			"tags":      ev.Tags,
			"timestamp": ts,
		},
		"monitor": map[string]any{
			"id":     ev.ID,
			"name":   fmt.Sprintf("Log Monitor: %s", ev.Service),
			"status": monitorStatus,
			"type":   "log",
		},
		"type":      "log",
		"timestamp": ts,
		"logContent": map[string]any{
			"message":        ev.Message,
			"level":          string(ev.Level),
			"service":        ev.Service,
			"tags":           ev.Tags,
			"fullAttributes": ev.Attrs,
		},
	}
}

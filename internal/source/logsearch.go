package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sort"
	"time"

	"github.com/linnemanlabs/beacon/internal/event"
)

const (
	defaultPageLimit = 1000
	maxPageLimit     = 1000
	httpTimeout      = 30 * time.Second
)

// LogSearch queries a Datadog-compatible log search API over HTTP.
type LogSearch struct {
	endpoint   string
	apiKey     string
	appKey     string
	filter     string
	pageLimit  int
	httpClient *http.Client
}

// NewLogSearch creates a log search client. An empty filter falls back to
// ErrorFilter; limit is clamped to 1..1000.
func NewLogSearch(endpoint, apiKey, appKey, filter string, limit int) *LogSearch {
	if filter == "" {
		filter = ErrorFilter
	}
	switch {
	case limit <= 0:
		limit = defaultPageLimit
	case limit > maxPageLimit:
		limit = maxPageLimit
	}
	return &LogSearch{
		endpoint:   endpoint,
		apiKey:     apiKey,
		appKey:     appKey,
		filter:     filter,
		pageLimit:  limit,
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

type searchRequest struct {
	Filter searchFilter `json:"filter"`
	Sort   string       `json:"sort"`
	Page   searchPage   `json:"page"`
}

type searchFilter struct {
	Query string `json:"query"`
	From  string `json:"from"`
	To    string `json:"to"`
}

type searchPage struct {
	Limit int `json:"limit"`
}

type searchResponse struct {
	Data []logRecord `json:"data"`
}

type logRecord struct {
	ID         string        `json:"id"`
	Attributes logAttributes `json:"attributes"`
}

type logAttributes struct {
	Timestamp time.Time      `json:"timestamp"`
	Message   string         `json:"message"`
	Status    string         `json:"status"`
	Service   string         `json:"service"`
	Tags      []string       `json:"tags"`
	Attrs     map[string]any `json:"attributes"`
}

// Search runs one filtered query for the window and converts the results.
// Records without an ID are dropped; output is ascending by timestamp
// regardless of the source's pagination order.
func (s *LogSearch) Search(ctx context.Context, w Window) ([]event.Event, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	u.Path = path.Join(u.Path, "api/v2/logs/events/search")

	body, err := json.Marshal(searchRequest{
		Filter: searchFilter{
			Query: s.filter,
			From:  w.From.UTC().Format(time.RFC3339Nano),
			To:    w.To.UTC().Format(time.RFC3339Nano),
		},
		Sort: "timestamp",
		Page: searchPage{Limit: s.pageLimit},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("DD-API-KEY", s.apiKey)
	req.Header.Set("DD-APPLICATION-KEY", s.appKey)

	resp, err := s.httpClient.Do(req) //nolint:gosec // G704: endpoint is from trusted config, not user input
	if err != nil {
		return nil, fmt.Errorf("log search failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20)) // 5 MB
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("log search returned %d: %s", resp.StatusCode, string(respBody))
	}

	var sr searchResponse
	if err := json.Unmarshal(respBody, &sr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	events := make([]event.Event, 0, len(sr.Data))
	for _, rec := range sr.Data {
		if rec.ID == "" {
			continue
		}
		svc := rec.Attributes.Service
		if svc == "" {
			svc = "unknown"
		}
		events = append(events, event.Event{
			ID:        rec.ID,
			Timestamp: rec.Attributes.Timestamp,
			Message:   rec.Attributes.Message,
			Level:     event.ParseLevel(rec.Attributes.Status),
			Service:   svc,
			Tags:      rec.Attributes.Tags,
			Attrs:     rec.Attributes.Attrs,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, nil
}

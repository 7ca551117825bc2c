// Package sms sends alert notifications through a Twilio-style messaging
// provider: a basic-auth form POST with from, to, and body fields.
package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const httpTimeout = 10 * time.Second

// Sender delivers short notification messages.
type Sender struct {
	endpoint string
	user     string
	pass     string
	from     string
	to       string
	client   *http.Client
}

// New creates an SMS sender. If endpoint is empty, Send is a no-op.
func New(endpoint, user, pass, from, to string) *Sender {
	return &Sender{
		endpoint: endpoint,
		user:     user,
		pass:     pass,
		from:     from,
		to:       to,
		client:   &http.Client{Timeout: httpTimeout},
	}
}

// Send posts one message body to the provider. Success is any 2xx status.
func (s *Sender) Send(ctx context.Context, body string) error {
	if s.endpoint == "" {
		return nil
	}

	form := url.Values{}
	form.Set("From", s.from)
	form.Set("To", s.to)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("sms: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.user, s.pass)

	resp, err := s.client.Do(req) //nolint:gosec // G704: endpoint is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("sms: post message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms: provider returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

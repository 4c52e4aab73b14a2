// Package usage posts workflow-run usage events to the pub/sub service.
package usage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/target/gha-notifier/internal/domain/model"
)

const userAgent = "gha-notifier/1"

// Event is the usage record posted for every completed workflow run.
type Event struct {
	BuildID    string `json:"build_id"`
	Workflow   string `json:"workflow"`
	Repository string `json:"repository"`
	Actor      string `json:"actor"`
	JobsURL    string `json:"jobs_url"`
	Status     string `json:"status"`

	// WorkflowID selects the endpoint path; the body carries it as Workflow.
	WorkflowID string `json:"-"`
}

// EventFromRun builds the usage event for run.
func EventFromRun(run *model.WorkflowRun) Event {
	if run == nil {
		return Event{}
	}
	return Event{
		BuildID:    run.RunID,
		Workflow:   run.WorkflowID,
		Repository: run.Repository,
		Actor:      run.Actor,
		JobsURL:    run.JobsURL,
		Status:     run.Conclusion,
		WorkflowID: run.WorkflowID,
	}
}

// Publishable reports whether the event carries enough identity to be posted.
func (e Event) Publishable() bool {
	return e.JobsURL != "" && e.BuildID != ""
}

// Config controls the usage client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
}

// Client posts usage events. Failures are returned, never retried.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient builds a usage client for baseURL (scheme and host, e.g. https://pubsub.apache.org:2070).
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("usage base url is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse usage base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("usage base url must use http or https scheme, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("usage base url must include a host")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: base, client: hc}, nil
}

// Endpoint returns the URL an event is posted to.
func (c *Client) Endpoint(ev Event) string {
	return fmt.Sprintf("%s/github/%s.git/actions/%s",
		c.baseURL,
		url.PathEscape(ev.Repository),
		url.PathEscape(ev.WorkflowID),
	)
}

// Publish posts ev as JSON. Non-2xx responses are errors.
func (c *Client) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode usage event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(ev), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create usage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("usage request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("usage endpoint returned %s", resp.Status)
	}
	return nil
}

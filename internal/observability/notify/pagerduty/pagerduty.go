// Package pagerduty mirrors workflow notifications to PagerDuty's Events API
// v2. A failure triggers an incident keyed by workflow; the matching recovery
// resolves it.
package pagerduty

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/target/gha-notifier/internal/observability/notify"
)

// APIEndpoint is the PagerDuty Events API v2 ingest URL.
const APIEndpoint = "https://events.pagerduty.com/v2/enqueue"

const (
	actionTrigger = "trigger"
	actionResolve = "resolve"

	maxErrorBody = 4 << 10
)

// Config captures runtime configuration for the PagerDuty sink.
type Config struct {
	RoutingKey string
	Source     string
	// Severity of triggered incidents; defaults to error.
	Severity string
	Timeout  time.Duration
	// Endpoint overrides APIEndpoint (tests).
	Endpoint string
	Client   *http.Client
}

// Client publishes events via PagerDuty's Events API v2.
type Client struct {
	routingKey string
	source     string
	severity   string
	endpoint   string
	client     *http.Client
}

var _ notify.Sink = (*Client)(nil)

// NewClient constructs a PagerDuty events client from config. Callers must provide a routing key.
func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.RoutingKey)
	if key == "" {
		return nil, errors.New("pagerduty routing key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		routingKey: key,
		source:     fallbackString(strings.TrimSpace(cfg.Source), "gha-notifier"),
		severity:   fallbackString(strings.ToLower(strings.TrimSpace(cfg.Severity)), "error"),
		endpoint:   fallbackString(strings.TrimSpace(cfg.Endpoint), APIEndpoint),
		client:     hc,
	}, nil
}

// Send triggers an incident for failures and resolves it on recovery.
func (c *Client) Send(ctx context.Context, msg notify.Message) error {
	event, err := c.buildEvent(msg)
	if err != nil {
		return err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode pagerduty payload: %w", err)
	}
	return c.submit(ctx, body)
}

// DedupKey identifies the incident for one workflow of one repository.
func DedupKey(nc notify.NotificationContext) string {
	return fmt.Sprintf("gha-notifier:%s:%s",
		fallbackString(nc.Repository, "unknown"),
		fallbackString(nc.WorkflowID, "unknown"))
}

func (c *Client) buildEvent(msg notify.Message) (map[string]any, error) {
	nc := msg.Context
	event := map[string]any{
		"routing_key": c.routingKey,
		"dedup_key":   DedupKey(nc),
	}

	switch msg.Kind {
	case notify.KindRecovery:
		event["event_action"] = actionResolve
		return event, nil
	case notify.KindFailure:
		event["event_action"] = actionTrigger
	default:
		return nil, fmt.Errorf("pagerduty: unsupported notification kind %q", msg.Kind)
	}

	custom := map[string]any{
		"repository":  nc.Repository,
		"workflow":    nc.WorkflowName,
		"workflow_id": nc.WorkflowID,
		"run_id":      nc.RunID,
		"branch":      nc.Branch,
		"actor":       nc.Actor,
		"triggered":   nc.Trigger,
		"commit":      nc.CommitHash,
	}

	if nc.ReportURL != "" {
		event["links"] = []map[string]string{{"href": nc.ReportURL, "text": "Workflow run"}}
	}
	event["payload"] = map[string]any{
		"summary":        fallbackString(msg.Subject, "Workflow run failed"),
		"severity":       c.severity,
		"source":         c.source,
		"component":      nc.Repository,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"custom_details": custom,
	}
	return event, nil
}

func fallbackString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// submit posts one event. PagerDuty answers 202 on success; the error body
// (bounded) is folded into the returned error.
func (c *Client) submit(ctx context.Context, body []byte) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create pagerduty request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("pagerduty request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close pagerduty response: %w", closeErr))
		}
	}()

	detail, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if readErr != nil {
		return fmt.Errorf("pagerduty api %s (read body: %w)", resp.Status, readErr)
	}
	return fmt.Errorf("pagerduty api %s: %s", resp.Status, strings.TrimSpace(string(detail)))
}

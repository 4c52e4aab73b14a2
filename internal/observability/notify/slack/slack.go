package slack

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

// Config captures the subset of Slack webhook behaviour we need.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	Client     *http.Client
}

// Client mirrors workflow notifications to a Slack incoming webhook.
type Client struct {
	webhookURL string
	channel    string
	username   string
	client     *http.Client
}

var _ notify.Sink = (*Client)(nil)

// NewClient builds a Slack webhook client. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
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
		webhookURL: webhookURL,
		channel:    strings.TrimSpace(cfg.Channel),
		username:   fallbackString(strings.TrimSpace(cfg.Username), "gha-notifier"),
		client:     hc,
	}, nil
}

// Send posts a formatted message to Slack. Failures are returned, not retried.
func (c *Client) Send(ctx context.Context, msg notify.Message) error {
	body, err := json.Marshal(c.formatMessage(msg))
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}
	return c.post(ctx, body)
}

func (c *Client) formatMessage(msg notify.Message) map[string]any {
	text := strings.Builder{}
	writeSlackHeader(&text, msg)
	appendSlackDetails(&text, msg.Context)

	out := map[string]any{
		"text":     text.String(),
		"username": c.username,
	}
	if c.channel != "" {
		out["channel"] = c.channel
	}
	return out
}

func fallbackString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	if readErr != nil {
		return fmt.Errorf("drain slack response body: %w", readErr)
	}
	return nil
}

func writeSlackHeader(text *strings.Builder, msg notify.Message) {
	switch msg.Kind {
	case notify.KindFailure:
		text.WriteString(":x: ")
	case notify.KindRecovery:
		text.WriteString(":white_check_mark: ")
	}
	text.WriteByte('*')
	text.WriteString(escapeSlackText(msg.Subject))
	text.WriteString("*\n")
}

func appendSlackDetails(text *strings.Builder, nc notify.NotificationContext) {
	commit := strings.TrimSpace(nc.CommitHash)
	if commit != "" && nc.CommitAuthor != "" {
		commit += " by " + nc.CommitAuthor
	}

	fields := []struct {
		label string
		value string
	}{
		{"Branch", nc.Branch},
		{"Actor", nc.Actor},
		{"Triggered by", nc.Trigger},
		{"Commit", commit},
		{"Report", formatLink(nc.ReportURL, "run "+nc.RunID)},
	}

	for _, field := range fields {
		appendSlackField(text, field.label, field.value)
	}
}

func formatLink(url, label string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	if strings.TrimSpace(label) == "run" {
		return url
	}
	return fmt.Sprintf("<%s|%s>", url, escapeSlackText(label))
}

func escapeSlackText(value string) string {
	if value == "" {
		return ""
	}
	return strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	).Replace(value)
}

func appendSlackField(text *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	text.WriteString("• ")
	text.WriteString(label)
	text.WriteString(": ")
	text.WriteString(value)
	text.WriteByte('\n')
}

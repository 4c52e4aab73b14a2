package config

import (
	"strings"
	"time"
)

const defaultObservabilityName = "gha-notifier"

// ObservabilityConfig groups configuration that controls metrics and notification mirrors.
type ObservabilityConfig struct {
	Metrics       ObservabilityMetricsConfig
	Notifications ObservabilityNotificationsConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
	c.Notifications.Sanitize()
}

// ObservabilityMetricsConfig controls emission of metrics to external sinks such as StatsD.
type ObservabilityMetricsConfig struct {
	Enabled       bool   `env:"OBSERVABILITY_METRICS_ENABLED"        envDefault:"false"`
	StatsdAddress string `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
	Prefix        string `env:"OBSERVABILITY_METRICS_PREFIX"         envDefault:"gha_notifier"`
}

// Sanitize normalises derived fields and enforces safe defaults.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	if c.StatsdAddress == "" {
		c.Enabled = false
	}
}

// IsEnabled returns true when metrics emission is active after sanitisation.
func (c *ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}

// ObservabilityNotificationsConfig controls mirrors of workflow notifications beyond email.
type ObservabilityNotificationsConfig struct {
	Timeout   time.Duration               `env:"NOTIFY_TIMEOUT" envDefault:"5s"`
	Slack     SlackNotificationConfig     `                                    envPrefix:"NOTIFY_SLACK_"`
	PagerDuty PagerDutyNotificationConfig `                                    envPrefix:"NOTIFY_PAGERDUTY_"`
}

// Sanitize normalises notification configuration values.
func (c *ObservabilityNotificationsConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	c.Slack.sanitize()
	c.PagerDuty.sanitize()
}

// SlackNotificationConfig controls Slack webhook fan-out.
type SlackNotificationConfig struct {
	WebhookURL string `env:"WEBHOOK_URL"`
	Channel    string `env:"CHANNEL"`
	Username   string `env:"USERNAME"    envDefault:"gha-notifier"`
}

func (c *SlackNotificationConfig) sanitize() {
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	c.Channel = strings.TrimSpace(c.Channel)
	if c.Username = strings.TrimSpace(c.Username); c.Username == "" {
		c.Username = defaultObservabilityName
	}
}

// Enabled reports whether Slack mirroring is configured.
func (c *SlackNotificationConfig) Enabled() bool {
	return c.WebhookURL != ""
}

// PagerDutyNotificationConfig controls PagerDuty incident mirroring.
type PagerDutyNotificationConfig struct {
	RoutingKey string `env:"ROUTING_KEY"`
	Source     string `env:"SOURCE"      envDefault:"gha-notifier"`
	Severity   string `env:"SEVERITY"    envDefault:"error"`
}

func (c *PagerDutyNotificationConfig) sanitize() {
	c.RoutingKey = strings.TrimSpace(c.RoutingKey)
	if c.Source = strings.TrimSpace(c.Source); c.Source == "" {
		c.Source = defaultObservabilityName
	}
	switch c.Severity = strings.ToLower(strings.TrimSpace(c.Severity)); c.Severity {
	case "critical", "error", "warning", "info":
	default:
		c.Severity = "error"
	}
}

// Enabled reports whether PagerDuty mirroring is configured.
func (c *PagerDutyNotificationConfig) Enabled() bool {
	return c.RoutingKey != ""
}

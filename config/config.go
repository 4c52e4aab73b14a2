package config

import (
	"log/slog"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - allowlist.go: Webhook source allowlist configuration
//   - redis.go: Redis cache configuration
//   - http.go: HTTP server configuration
//   - notify.go: Mail, usage tracking and recipient configuration
//   - observability.go: Metrics and notification mirror configuration
type AppConfig struct {
	// LogLevel controls the minimum slog level (debug, info, warn, error).
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Webhook source allowlist configuration
	Allowlist AllowlistConfig `envPrefix:"ALLOWLIST_"`

	// Outbound mail configuration
	Mail MailConfig `envPrefix:"MAIL_"`

	// Usage tracking (pub/sub) configuration
	Usage UsageConfig `envPrefix:"USAGE_"`

	// Recipient resolution configuration
	Recipients RecipientsConfig `envPrefix:"RECIPIENTS_"`

	// Redis is optional; when URI is empty recipient lookups are cached in memory.
	Redis RedisConfig `envPrefix:"REDIS_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	c.HTTP.Sanitize()
	c.Allowlist.Sanitize()
	c.Mail.Sanitize()
	c.Usage.Sanitize()
	c.Recipients.Sanitize()
	c.Redis.Sanitize()
	c.Observability.Sanitize()
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

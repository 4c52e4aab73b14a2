package config

import (
	"fmt"
	"strings"
	"time"
)

// DefaultMailFrom is the fixed sender for workflow notifications.
const DefaultMailFrom = "GitBox <git@apache.org>"

// MailConfig contains SMTP settings for outbound notifications.
type MailConfig struct {
	Host     string        `env:"HOST"     envDefault:"localhost"`
	Port     int           `env:"PORT"     envDefault:"25"`
	From     string        `env:"FROM"     envDefault:"GitBox <git@apache.org>"`
	Username string        `env:"USERNAME"`
	Password string        `env:"PASSWORD"`
	TLS      bool          `env:"TLS"      envDefault:"false"`
	Timeout  time.Duration `env:"TIMEOUT"  envDefault:"10s"`
}

// Sanitize normalises mail configuration values.
func (c *MailConfig) Sanitize() {
	c.Host = strings.TrimSpace(c.Host)
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port <= 0 || c.Port > 65535 {
		c.Port = 25
	}
	if c.From = strings.TrimSpace(c.From); c.From == "" {
		c.From = DefaultMailFrom
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// UsageConfig controls the fire-and-forget usage event post.
type UsageConfig struct {
	Enabled bool          `env:"ENABLED"  envDefault:"true"`
	BaseURL string        `env:"BASE_URL" envDefault:"https://pubsub.apache.org:2070"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"5s"`
}

// Sanitize normalises usage configuration values.
func (c *UsageConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.Enabled = false
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
}

// RecipientMode selects where per-repository recipient documents are read from.
type RecipientMode string

const (
	// RecipientModeLocal reads <Dir>/<repo>.yaml from the filesystem.
	RecipientModeLocal RecipientMode = "local"
	// RecipientModeRemote fetches <BaseURL>/<repo>.yaml over HTTP.
	RecipientModeRemote RecipientMode = "remote"
)

// UnmarshalText implements encoding.TextUnmarshaler for RecipientMode.
func (m *RecipientMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "local", "remote":
		*m = RecipientMode(v)
		return nil
	default:
		return fmt.Errorf("invalid RecipientMode: %q (valid options: local, remote)", v)
	}
}

// RecipientsConfig controls recipient resolution.
type RecipientsConfig struct {
	Mode    RecipientMode `env:"MODE"     envDefault:"local"`
	Dir     string        `env:"DIR"      envDefault:"/x1/gitbox/conf/notifications"`
	BaseURL string        `env:"BASE_URL"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"5s"`
	// CacheTTL bounds how long lookups, including "no document", are reused.
	// Zero disables the cache.
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	// Overrides maps legacy mirrored repositories straight to an address.
	// Format: repo:address,repo2:address2
	Overrides map[string]string `env:"OVERRIDES" envKeyValSeparator:":"`
}

// Sanitize normalises recipient configuration values.
func (c *RecipientsConfig) Sanitize() {
	if c.Mode == "" {
		c.Mode = RecipientModeLocal
	}
	c.Dir = strings.TrimSpace(c.Dir)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.CacheTTL < 0 {
		c.CacheTTL = 0
	}

	overrides := make(map[string]string, len(c.Overrides))
	for repo, addr := range c.Overrides {
		repo, addr = strings.TrimSpace(repo), strings.TrimSpace(addr)
		if repo == "" || addr == "" {
			continue
		}
		overrides[repo] = addr
	}
	c.Overrides = overrides
}

// Validate reports configuration that would make every lookup fail.
func (c *RecipientsConfig) Validate() error {
	switch c.Mode {
	case RecipientModeLocal:
		if c.Dir == "" {
			return fmt.Errorf("recipients: %s mode requires RECIPIENTS_DIR", c.Mode)
		}
	case RecipientModeRemote:
		if c.BaseURL == "" {
			return fmt.Errorf("recipients: %s mode requires RECIPIENTS_BASE_URL", c.Mode)
		}
	default:
		return fmt.Errorf("recipients: unknown mode %q", c.Mode)
	}
	return nil
}

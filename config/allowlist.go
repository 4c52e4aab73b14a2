package config

import (
	"strings"
	"time"
)

// DefaultMetaURL is GitHub's metadata endpoint listing webhook source ranges.
const DefaultMetaURL = "https://api.github.com/meta"

// AllowlistConfig controls how the webhook source allowlist is built at startup.
type AllowlistConfig struct {
	// MetaURL is fetched once at startup; failure aborts the process.
	MetaURL string `env:"META_URL" envDefault:"https://api.github.com/meta"`

	// MetaQuery is a JMESPath expression selecting the CIDR list from the metadata document.
	MetaQuery string `env:"META_QUERY" envDefault:"hooks"`

	// Timeout bounds the metadata request.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`

	// GitHubToken is optional and only raises the metadata API rate limit.
	GitHubToken string `env:"GITHUB_TOKEN"`

	// ExtraRanges are appended to the fetched ranges (e.g. a local test network).
	ExtraRanges []string `env:"EXTRA_RANGES"`
}

// Sanitize normalises allowlist configuration values.
func (c *AllowlistConfig) Sanitize() {
	c.MetaURL = strings.TrimSpace(c.MetaURL)
	if c.MetaURL == "" {
		c.MetaURL = DefaultMetaURL
	}
	c.MetaQuery = strings.TrimSpace(c.MetaQuery)
	if c.MetaQuery == "" {
		c.MetaQuery = "hooks"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	c.GitHubToken = strings.TrimSpace(c.GitHubToken)

	ranges := c.ExtraRanges[:0]
	for _, r := range c.ExtraRanges {
		if r = strings.TrimSpace(r); r != "" {
			ranges = append(ranges, r)
		}
	}
	c.ExtraRanges = ranges
}

package config

import "strings"

// RedisConfig contains Redis configuration for the shared recipient cache.
// Leave URI empty to keep the cache in process memory.
type RedisConfig struct {
	URI       string `env:"URI"        envDefault:""`
	Password  string `env:"PASSWORD"   envDefault:""`
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"gha-notifier:recipient:"`
}

// Sanitize trims whitespace from connection settings.
func (c *RedisConfig) Sanitize() {
	c.URI = strings.TrimSpace(c.URI)
	if c.KeyPrefix = strings.TrimSpace(c.KeyPrefix); c.KeyPrefix == "" {
		c.KeyPrefix = "gha-notifier:recipient:"
	}
}

// Enabled reports whether a Redis cache should be used.
func (c *RedisConfig) Enabled() bool {
	return c.URI != ""
}

package config

// defaultMaxBodyBytes matches GitHub's documented 25 MB payload cap.
const defaultMaxBodyBytes = 25 << 20

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8083"`

	// MaxBodyBytes bounds the webhook request body read.
	MaxBodyBytes int64 `env:"HTTP_MAX_BODY_BYTES" envDefault:"26214400"`

	// MaxConnections caps concurrently accepted connections. Zero disables the cap.
	MaxConnections int `env:"HTTP_MAX_CONNECTIONS" envDefault:"0"`

	// TrustForwardedFor makes the allowlist prefer X-Forwarded-For over the peer address.
	// Only enable behind a reverse proxy that sets the header.
	TrustForwardedFor bool `env:"HTTP_TRUST_FORWARDED_FOR" envDefault:"true"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.Addr == "" {
		h.Addr = ":8083"
	}
	if h.MaxBodyBytes <= 0 {
		h.MaxBodyBytes = defaultMaxBodyBytes
	}
	if h.MaxConnections < 0 {
		h.MaxConnections = 0
	}
}

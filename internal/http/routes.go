package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/gha-notifier/internal/observability/statsd"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Notifier RunHandler
	// Gate is required; a nil gate rejects every webhook.
	Gate              SourceGate
	TrustForwardedFor bool
	MaxBodyBytes      int64
	Metrics           statsd.Sink
	Logger            *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	hook := &HookHandlers{
		Notifier:     services.Notifier,
		MaxBodyBytes: services.MaxBodyBytes,
		Metrics:      services.Metrics,
		Logger:       logger.With("component", "hook"),
	}
	gate := RequireAllowedSource(services.Gate, services.TrustForwardedFor, logger.With("component", "allowlist"), services.Metrics)
	hookHandler := gate(http.HandlerFunc(hook.Hook))

	mux.Handle("POST /hook", hookHandler)
	mux.Handle("PUT /hook", hookHandler)
	health := healthHandler(services.Gate)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	return mux
}

package httpx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/gha-notifier/internal/domain/model"
	"github.com/target/gha-notifier/internal/observability/metrics"
	"github.com/target/gha-notifier/internal/observability/statsd"
	"github.com/target/gha-notifier/internal/service/runnotifier"
)

const (
	responseDelivered = "Delivered\n"
	responseNoContent = "No content\n"

	// DefaultMaxBodyBytes bounds webhook bodies when no limit is configured.
	DefaultMaxBodyBytes int64 = 25 << 20
)

// RunHandler processes a parsed workflow run.
type RunHandler interface {
	HandleRun(ctx context.Context, run *model.WorkflowRun) runnotifier.Outcome
}

// HookHandlers serves the webhook endpoint.
type HookHandlers struct {
	Notifier     RunHandler
	MaxBodyBytes int64
	Metrics      statsd.Sink
	Logger       *slog.Logger
}

// Hook accepts a webhook delivery. The caller always gets 200 "Delivered\n";
// unparsable bodies and non-completion actions are no-ops.
func (h *HookHandlers) Hook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger := h.logger()

	limit := h.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn("webhook body exceeds limit", slog.Int64("limit", tooLarge.Limit))
		} else {
			logger.Warn("failed to read webhook body", slog.Any("error", err))
		}
		h.finish(w, metrics.ResultNoop, start)
		return
	}

	run, ok := model.ParseDelivery(body)
	if !ok || h.Notifier == nil {
		h.finish(w, metrics.ResultNoop, start)
		return
	}

	// Delivery outlives the caller: the status table is updated before the
	// sinks run, so an aborted send would never be retried. Outbound clients
	// carry their own timeouts.
	out := h.Notifier.HandleRun(context.WithoutCancel(r.Context()), run)
	result := metrics.ResultSuccess
	if out.Skipped {
		result = metrics.ResultSkipped
	}
	h.finish(w, result, start)
}

func (h *HookHandlers) finish(w http.ResponseWriter, result string, start time.Time) {
	writeText(w, responseDelivered)
	metrics.EmitHook(h.Metrics, metrics.HookMetric{Result: result, Duration: time.Since(start)})
}

func (h *HookHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

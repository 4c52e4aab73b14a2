package httpx

import (
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/target/gha-notifier/internal/allowlist"
	"github.com/target/gha-notifier/internal/observability/metrics"
	"github.com/target/gha-notifier/internal/observability/statsd"
)

const (
	headerRequestID = "X-Request-ID"
	headerDelivery  = "X-GitHub-Delivery"
)

// Logging returns a middleware that logs HTTP requests and responses.
// Every request gets an id, taken from X-Request-ID when present.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get(headerRequestID)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(headerRequestID, reqID)
			r = r.WithContext(SetRequestIDInContext(r.Context(), reqID))

			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", reqID),
			}
			if delivery := r.Header.Get(headerDelivery); delivery != "" {
				attrs = append(attrs, slog.String("delivery_id", delivery))
			}
			logger.Info("http", attrs...)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					reqID, _ := RequestIDFromContext(r.Context())
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("request_id", reqID),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SourceGate decides whether a source address may deliver webhooks.
type SourceGate interface {
	Contains(addr netip.Addr) bool
}

// RequireAllowedSource answers requests from sources outside the gate with
// 200 "No content\n" and never reaches next for them.
func RequireAllowedSource(
	gate SourceGate,
	trustForwarded bool,
	logger *slog.Logger,
	sink statsd.Sink,
) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr, ok := allowlist.ClientAddr(r, trustForwarded)
			if !ok || gate == nil || !gate.Contains(addr) {
				logger.Warn("rejected webhook from unlisted source",
					slog.String("source", addrString(addr, r.RemoteAddr)),
					slog.String("path", r.URL.Path))
				metrics.EmitHook(sink, metrics.HookMetric{Result: metrics.ResultRejected})
				writeText(w, responseNoContent)
				return
			}
			next.ServeHTTP(w, r.WithContext(SetClientAddrInContext(r.Context(), addr)))
		})
	}
}

func addrString(addr netip.Addr, fallback string) string {
	if addr.IsValid() {
		return addr.String()
	}
	return fallback
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	// Nothing more to do if the client connection is gone.
	_, _ = io.WriteString(w, body)
}

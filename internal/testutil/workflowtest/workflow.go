// Package workflowtest provides an end-to-end harness for the webhook notifier:
// a real router and notifier wired to fake GitHub metadata, usage and SMTP
// endpoints.
package workflowtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wneessen/go-mail"

	redisadapter "github.com/target/gha-notifier/internal/adapters/redis"
	"github.com/target/gha-notifier/internal/allowlist"
	"github.com/target/gha-notifier/internal/core"
	httpx "github.com/target/gha-notifier/internal/http"
	"github.com/target/gha-notifier/internal/observability/notify/email"
	"github.com/target/gha-notifier/internal/observability/usage"
	"github.com/target/gha-notifier/internal/service/recipients"
	"github.com/target/gha-notifier/internal/service/runnotifier"
	"github.com/target/gha-notifier/internal/testutil"
)

// NotifierTestHarness runs the webhook stack behind an httptest server.
//
//nolint:revive // NotifierTestHarness is intentionally verbose for clarity in test code.
type NotifierTestHarness struct {
	t  testutil.TestingTB
	ts *httptest.Server

	meta     *httptest.Server
	usageSrv *httptest.Server

	Store         *core.MemoryStatusStore
	Service       *runnotifier.Service
	Ranges        *allowlist.RangeSet
	RecipientsDir string

	// Optional Redis components
	RedisClient *redis.Client
	Cache       core.RecipientCache

	mu     sync.Mutex
	mails  []*mail.Msg
	events []UsageRequest
}

// NotifierTestOptions configures the harness.
//
//nolint:revive // NotifierTestOptions is intentionally verbose for clarity in test code.
type NotifierTestOptions struct {
	// Recipients are written as <repo>.yaml documents with a jobs key.
	Recipients map[string][]string
	// Overrides take precedence over documents.
	Overrides map[string]string
	// HookRanges is served as the metadata "hooks" list.
	HookRanges []string
	// TrustForwardedFor makes the gate read X-Forwarded-For.
	TrustForwardedFor bool
	// EnableRedis caches recipient lookups in Redis instead of memory.
	EnableRedis bool
	// UsageStatus is the status code returned by the fake usage endpoint.
	UsageStatus int
}

// UsageRequest is one request received by the fake usage endpoint.
type UsageRequest struct {
	Path  string
	Event usage.Event
}

// DefaultNotifierOptions allows loopback callers and no forwarded header.
func DefaultNotifierOptions() NotifierTestOptions {
	return NotifierTestOptions{
		HookRanges:  []string{"127.0.0.0/8", "::1/128"},
		UsageStatus: http.StatusNoContent,
	}
}

// RedisNotifierOptions is DefaultNotifierOptions with the Redis recipient cache.
func RedisNotifierOptions() NotifierTestOptions {
	opts := DefaultNotifierOptions()
	opts.EnableRedis = true
	return opts
}

// NewNotifierTestHarness wires the whole stack. Tests are skipped when Redis
// is requested but unavailable.
func NewNotifierTestHarness(t testutil.TestingTB, opts NotifierTestOptions) *NotifierTestHarness {
	t.Helper()

	if opts.UsageStatus == 0 {
		opts.UsageStatus = http.StatusNoContent
	}
	logger := slog.New(slog.DiscardHandler)

	h := &NotifierTestHarness{t: t}

	// Redis first: SetupTestRedis may skip the test.
	if opts.EnableRedis {
		h.RedisClient = testutil.SetupTestRedis(t)
		h.Cache = redisadapter.NewRecipientCacheWithPrefix(h.RedisClient, "workflowtest:recipient:")
	} else {
		h.Cache = core.NewMemoryRecipientCache()
	}
	if tc, ok := any(t).(interface{ Cleanup(func()) }); ok {
		tc.Cleanup(h.Close)
	}

	h.setupMetadata(opts.HookRanges)
	h.setupUsage(opts.UsageStatus)
	h.writeRecipients(opts.Recipients)

	ranges := h.loadRanges(logger)
	h.Ranges = ranges

	h.Service = h.buildService(opts, logger)

	router := httpx.NewRouter(httpx.RouterServices{
		Notifier:          h.Service,
		Gate:              ranges,
		TrustForwardedFor: opts.TrustForwardedFor,
		Logger:            logger,
	})
	h.ts = httptest.NewServer(httpx.Recover(logger)(httpx.Logging(logger)(router)))
	return h
}

func (h *NotifierTestHarness) setupMetadata(ranges []string) {
	doc, err := json.Marshal(map[string]any{
		"verifiable_password_authentication": false,
		"hooks":                              ranges,
		"web":                                []string{"140.82.112.0/20"},
	})
	if err != nil {
		h.t.Fatalf("marshal metadata: %v", err)
	}
	h.meta = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, werr := w.Write(doc); werr != nil {
			h.t.Logf("warning: failed to write metadata: %v", werr)
		}
	}))
}

func (h *NotifierTestHarness) setupUsage(status int) {
	h.usageSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev usage.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		h.mu.Lock()
		h.events = append(h.events, UsageRequest{Path: r.URL.EscapedPath(), Event: ev})
		h.mu.Unlock()
		w.WriteHeader(status)
	}))
}

func (h *NotifierTestHarness) writeRecipients(docs map[string][]string) {
	dir, err := os.MkdirTemp("", "workflowtest-recipients-")
	if err != nil {
		h.t.Fatalf("create recipients dir: %v", err)
	}
	h.RecipientsDir = dir

	for repo, addrs := range docs {
		var b strings.Builder
		b.WriteString("jobs:\n")
		for _, addr := range addrs {
			fmt.Fprintf(&b, "  - %s\n", addr)
		}
		path := filepath.Join(dir, repo+".yaml")
		if werr := os.WriteFile(path, []byte(b.String()), 0o600); werr != nil {
			h.t.Fatalf("write recipients for %s: %v", repo, werr)
		}
	}
}

func (h *NotifierTestHarness) loadRanges(logger *slog.Logger) *allowlist.RangeSet {
	fetcher, err := allowlist.NewFetcher(allowlist.FetcherOptions{
		URL:     h.meta.URL,
		Query:   "hooks",
		Timeout: 5 * time.Second,
		Logger:  logger,
	})
	if err != nil {
		h.t.Fatalf("new fetcher: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ranges, err := fetcher.Fetch(ctx)
	if err != nil {
		h.t.Fatalf("fetch ranges: %v", err)
	}
	return ranges
}

func (h *NotifierTestHarness) buildService(opts NotifierTestOptions, logger *slog.Logger) *runnotifier.Service {
	source, err := recipients.NewFileSource(h.RecipientsDir)
	if err != nil {
		h.t.Fatalf("new file source: %v", err)
	}
	resolver, err := recipients.NewResolver(recipients.Options{
		Logger:    logger,
		Overrides: opts.Overrides,
		Source:    source,
		Cache:     h.Cache,
		CacheTTL:  time.Minute,
	})
	if err != nil {
		h.t.Fatalf("new resolver: %v", err)
	}

	mailSink, err := email.NewSinkWithSender("GitHub Actions <gitbox@example.org>", senderFunc(h.recordMail))
	if err != nil {
		h.t.Fatalf("new email sink: %v", err)
	}
	usageClient, err := usage.NewClient(usage.Config{BaseURL: h.usageSrv.URL, Timeout: 5 * time.Second})
	if err != nil {
		h.t.Fatalf("new usage client: %v", err)
	}

	h.Store = core.NewMemoryStatusStore(nil)
	svc, err := runnotifier.NewService(runnotifier.Options{
		Logger:   logger,
		Resolver: resolver,
		Tracker:  runnotifier.NewTracker(h.Store),
		Sinks:    []runnotifier.SinkRegistration{{Name: "email", Sink: mailSink}},
		Usage:    usageClient,
	})
	if err != nil {
		h.t.Fatalf("new service: %v", err)
	}
	return svc
}

// senderFunc adapts a function to email.Sender.
type senderFunc func(ctx context.Context, messages ...*mail.Msg) error

func (f senderFunc) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	return f(ctx, messages...)
}

func (h *NotifierTestHarness) recordMail(_ context.Context, messages ...*mail.Msg) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mails = append(h.mails, messages...)
	return nil
}

// Close cleans up all resources. It is safe to call more than once.
func (h *NotifierTestHarness) Close() {
	for _, srv := range []*httptest.Server{h.ts, h.meta, h.usageSrv} {
		if srv != nil {
			srv.Close()
		}
	}
	h.ts, h.meta, h.usageSrv = nil, nil, nil

	if h.RecipientsDir != "" {
		if err := os.RemoveAll(h.RecipientsDir); err != nil {
			h.t.Logf("warning: failed to remove recipients dir: %v", err)
		}
		h.RecipientsDir = ""
	}
	if h.RedisClient != nil {
		if err := h.RedisClient.Close(); err != nil {
			h.t.Logf("warning: failed to close redis client: %v", err)
		}
		h.RedisClient = nil
	}
}

// BaseURL returns the base URL of the webhook server.
func (h *NotifierTestHarness) BaseURL() string {
	return h.ts.URL
}

// Mails returns the messages handed to the SMTP sender so far.
func (h *NotifierTestHarness) Mails() []*mail.Msg {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*mail.Msg(nil), h.mails...)
}

// MailSubjects returns the subject line of every captured mail.
func (h *NotifierTestHarness) MailSubjects() []string {
	var out []string
	for _, m := range h.Mails() {
		out = append(out, strings.Join(m.GetGenHeader(mail.HeaderSubject), ""))
	}
	return out
}

// UsageRequests returns the requests received by the fake usage endpoint.
func (h *NotifierTestHarness) UsageRequests() []UsageRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]UsageRequest(nil), h.events...)
}

// DeliveryOption adjusts a webhook request.
type DeliveryOption func(*http.Request)

// WithForwardedFor sets the X-Forwarded-For header.
func WithForwardedFor(value string) DeliveryOption {
	return func(r *http.Request) { r.Header.Set("X-Forwarded-For", value) }
}

// WithMethod overrides the default POST method.
func WithMethod(method string) DeliveryOption {
	return func(r *http.Request) { r.Method = method }
}

// Deliver posts payload to /hook and returns the status code and body.
func (h *NotifierTestHarness) Deliver(payload []byte, opts ...DeliveryOption) (int, string) {
	h.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL()+"/hook", bytes.NewReader(payload))
	if err != nil {
		h.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "workflow_run")
	for _, opt := range opts {
		opt(req)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		h.t.Fatalf("do request: %v", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			h.t.Logf("warning: failed to close response body: %v", cerr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, string(body)
}

func removeRecipients(h *NotifierTestHarness, repo string) error {
	return os.Remove(filepath.Join(h.RecipientsDir, repo+".yaml"))
}

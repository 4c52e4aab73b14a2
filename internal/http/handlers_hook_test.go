package httpx

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/gha-notifier/internal/domain/model"
	"github.com/target/gha-notifier/internal/service/runnotifier"
	"github.com/target/gha-notifier/internal/testutil"
)

// recordingNotifier captures every run handed to it.
type recordingNotifier struct {
	mu   sync.Mutex
	runs []*model.WorkflowRun
	out  runnotifier.Outcome
}

func (n *recordingNotifier) HandleRun(_ context.Context, run *model.WorkflowRun) runnotifier.Outcome {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.runs = append(n.runs, run)
	return n.out
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.runs)
}

func serveHook(t *testing.T, h *HookHandlers, method string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/hook", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Hook(rec, req)
	return rec
}

func TestHook_CompletedRunIsHandled(t *testing.T) {
	notifier := &recordingNotifier{}
	h := &HookHandlers{Notifier: notifier}

	payload := testutil.NewWorkflowRun().WithConclusion(model.ConclusionFailure).WithRepository("foo").Payload()
	rec := serveHook(t, h, http.MethodPost, payload)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Delivered\n", rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))

	require.Equal(t, 1, notifier.count())
	assert.Equal(t, "foo", notifier.runs[0].Repository)
	assert.Equal(t, model.ConclusionFailure, notifier.runs[0].Conclusion)
}

func TestHook_NoopDeliveriesStillAnswerDelivered(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{name: "non-completed action", body: testutil.NewWorkflowRun().WithAction("requested").Payload()},
		{name: "missing workflow_run", body: []byte(`{"action":"completed"}`)},
		{name: "ping event", body: []byte(`{"zen":"Keep it logically awesome.","hook_id":1}`)},
		{name: "not json", body: []byte("<html>")},
		{name: "empty body", body: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			rec := serveHook(t, &HookHandlers{Notifier: notifier}, http.MethodPut, tt.body)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "Delivered\n", rec.Body.String())
			assert.Zero(t, notifier.count())
		})
	}
}

func TestHook_OversizedBodyIsDropped(t *testing.T) {
	notifier := &recordingNotifier{}
	h := &HookHandlers{Notifier: notifier, MaxBodyBytes: 64}

	payload := testutil.NewWorkflowRun().With("padding", strings.Repeat("x", 256)).Payload()
	rec := serveHook(t, h, http.MethodPost, payload)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Delivered\n", rec.Body.String())
	assert.Zero(t, notifier.count())
}

func TestHook_EmitsResultMetric(t *testing.T) {
	sink := &countingSink{}
	notifier := &recordingNotifier{out: runnotifier.Outcome{Skipped: true}}
	h := &HookHandlers{Notifier: notifier, Metrics: sink}

	serveHook(t, h, http.MethodPost, testutil.NewWorkflowRun().Payload())
	serveHook(t, h, http.MethodPost, []byte(`{}`))

	assert.Equal(t, []string{"skipped", "noop"}, sink.results("hook.request"))
}

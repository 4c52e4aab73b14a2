package pagerduty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/target/gha-notifier/internal/observability/notify"
)

func testContext() notify.NotificationContext {
	return notify.NotificationContext{
		Repository:   "foo",
		WorkflowName: "CI",
		WorkflowID:   "42",
		RunID:        "1001",
		Branch:       "main",
		ReportURL:    "https://github.com/apache/foo/actions/runs/1001",
		Actor:        "alice",
		Trigger:      "bob",
		CommitHash:   "abc123",
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error when routing key missing")
	}
}

func TestBuildEventTrigger(t *testing.T) {
	client, err := NewClient(Config{RoutingKey: "key", Timeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	event, err := client.buildEvent(notify.Message{
		Kind:    notify.KindFailure,
		Subject: `[GitHub] [foo]: Workflow run "CI" failed!`,
		Context: testContext(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if event["event_action"] != "trigger" {
		t.Fatalf("expected trigger, got %v", event["event_action"])
	}
	if event["dedup_key"] != "gha-notifier:foo:42" {
		t.Fatalf("unexpected dedup key %v", event["dedup_key"])
	}

	payloadSection, ok := event["payload"].(map[string]any)
	if !ok {
		t.Fatalf("expected payload section")
	}
	if payloadSection["severity"] != "error" {
		t.Fatalf("expected default severity, got %v", payloadSection["severity"])
	}
	if payloadSection["source"] != "gha-notifier" {
		t.Fatalf("expected default source, got %v", payloadSection["source"])
	}
	if payloadSection["summary"] != `[GitHub] [foo]: Workflow run "CI" failed!` {
		t.Fatalf("unexpected summary %v", payloadSection["summary"])
	}

	custom, ok := payloadSection["custom_details"].(map[string]any)
	if !ok {
		t.Fatalf("expected custom details")
	}
	for _, key := range []string{"repository", "workflow_id", "run_id", "commit"} {
		if _, exists := custom[key]; !exists {
			t.Fatalf("expected key %s in custom details", key)
		}
	}
}

func TestBuildEventResolveAndUnknownKind(t *testing.T) {
	client, err := NewClient(Config{RoutingKey: "key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	event, err := client.buildEvent(notify.Message{Kind: notify.KindRecovery, Context: testContext()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event["event_action"] != "resolve" || event["dedup_key"] != "gha-notifier:foo:42" {
		t.Fatalf("unexpected resolve event %v", event)
	}
	if _, hasPayload := event["payload"]; hasPayload {
		t.Fatal("resolve events carry no payload")
	}

	if _, err := client.buildEvent(notify.Message{Kind: "digest"}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestSendPostsToEndpoint(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client, err := NewClient(Config{RoutingKey: "key", Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := notify.Message{Kind: notify.KindFailure, Subject: "failed", Context: testContext()}
	if err := client.Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got["routing_key"] != "key" || got["event_action"] != "trigger" {
		t.Fatalf("unexpected request body %v", got)
	}
}

func TestSendReportsAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"status":"invalid event"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewClient(Config{RoutingKey: "key", Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = client.Send(context.Background(), notify.Message{Kind: notify.KindRecovery, Context: testContext()})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
}

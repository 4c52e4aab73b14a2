// Package metrics emits the notifier's standard counters.
package metrics

import (
	"maps"
	"time"

	obserrors "github.com/target/gha-notifier/internal/observability/errors"
	"github.com/target/gha-notifier/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess  = "success"
	ResultError    = "error"
	ResultNoop     = "noop"
	ResultRejected = "rejected"
	ResultSkipped  = "skipped"
)

// HookMetric describes one webhook delivery.
type HookMetric struct {
	// Result is delivered, rejected or noop.
	Result   string
	Duration time.Duration
}

// EmitHook counts a webhook delivery and records its handling time.
func EmitHook(sink statsd.Sink, in HookMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"result": in.Result}
	sink.Count("hook.request", 1, tags)
	if in.Duration > 0 {
		sink.Timing("hook.duration", in.Duration, CloneTags(tags))
	}
}

// DeliveryMetric describes one outbound call made for a workflow run.
type DeliveryMetric struct {
	// Target names the destination: email, slack, pagerduty or usage.
	Target string
	// Kind is the notification kind, empty for usage events.
	Kind     string
	Duration time.Duration
	Err      error
}

// EmitDelivery counts an outbound notification or usage post.
func EmitDelivery(sink statsd.Sink, in DeliveryMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"target": in.Target,
		"result": ResultSuccess,
	}
	if in.Kind != "" {
		tags["kind"] = in.Kind
	}
	if in.Err != nil {
		tags["result"] = ResultError
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("delivery.attempt", 1, tags)
	if in.Duration > 0 {
		sink.Timing("delivery.duration", in.Duration, CloneTags(tags))
	}
}

// EmitDecision counts the tracker outcome for a run (failure, recovery, none, skipped).
func EmitDecision(sink statsd.Sink, decision string) {
	if sink == nil || decision == "" {
		return
	}
	sink.Count("run.decision", 1, map[string]string{"decision": decision})
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}

// Package runnotifier turns completed workflow runs into failure and recovery
// notifications and usage events.
package runnotifier

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/target/gha-notifier/internal/domain/model"
	apperrors "github.com/target/gha-notifier/internal/errors"
	"github.com/target/gha-notifier/internal/observability/metrics"
	"github.com/target/gha-notifier/internal/observability/notify"
	"github.com/target/gha-notifier/internal/observability/statsd"
	"github.com/target/gha-notifier/internal/observability/usage"
)

// RecipientResolver maps a repository to its notification recipient.
type RecipientResolver interface {
	Resolve(ctx context.Context, repo string) (model.Recipient, bool)
}

// UsagePublisher posts usage events.
type UsagePublisher interface {
	Publish(ctx context.Context, ev usage.Event) error
}

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the run notifier service.
type Options struct {
	Logger   *slog.Logger
	Resolver RecipientResolver
	// Tracker defaults to one backed by an in-memory status table.
	Tracker *Tracker
	Sinks   []SinkRegistration
	// Usage is optional; nil disables usage events.
	Usage   UsagePublisher
	Metrics statsd.Sink
}

// Outcome summarises what HandleRun did with a run.
type Outcome struct {
	Decision   Decision
	Skipped    bool
	Recipients []string
	// Delivered names the sinks that accepted the message.
	Delivered   []string
	UsagePosted bool
}

// Service evaluates workflow runs and dispatches notifications.
type Service struct {
	logger   *slog.Logger
	resolver RecipientResolver
	tracker  *Tracker
	sinks    []SinkRegistration
	usage    UsagePublisher
	metrics  statsd.Sink
}

// NewService constructs a run notifier.
func NewService(opts Options) (*Service, error) {
	if opts.Resolver == nil {
		return nil, errors.New("runnotifier: recipient resolver is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracker := opts.Tracker
	if tracker == nil {
		tracker = NewTracker(nil)
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{Name: name, Sink: entry.Sink})
	}

	return &Service{
		logger:   logger.With("component", "run_notifier"),
		resolver: opts.Resolver,
		tracker:  tracker,
		sinks:    sinks,
		usage:    opts.Usage,
		metrics:  opts.Metrics,
	}, nil
}

// Tracker returns the status tracker used by the service.
func (s *Service) Tracker() *Tracker {
	return s.tracker
}

// HandleRun evaluates run, notifies when the status transition warrants it
// and posts the usage event. Outbound failures are logged, never returned.
func (s *Service) HandleRun(ctx context.Context, run *model.WorkflowRun) Outcome {
	if run == nil {
		return Outcome{Decision: DecisionNone, Skipped: true}
	}

	out := s.evaluate(ctx, run)
	out.UsagePosted = s.publishUsage(ctx, run)
	return out
}

func (s *Service) evaluate(ctx context.Context, run *model.WorkflowRun) Outcome {
	rec, ok := s.resolver.Resolve(ctx, run.Repository)
	if !ok {
		s.logger.InfoContext(ctx, "no recipient configured, skipping notification",
			"repository", run.Repository,
			"workflow_id", run.WorkflowID,
			"status", run.Conclusion,
		)
		metrics.EmitDecision(s.metrics, metrics.ResultSkipped)
		return Outcome{Decision: DecisionNone, Skipped: true}
	}

	decision := s.tracker.Observe(run.WorkflowID, run.Conclusion)
	s.logger.InfoContext(ctx, "workflow run observed",
		"repository", run.Repository,
		"workflow_id", run.WorkflowID,
		"status", run.Conclusion,
		"decision", string(decision),
	)
	metrics.EmitDecision(s.metrics, string(decision))

	out := Outcome{Decision: decision, Recipients: rec.Addresses}
	if !decision.Notifies() {
		return out
	}

	kind := notify.KindFailure
	if decision == DecisionRecovery {
		kind = notify.KindRecovery
	}
	msg, err := notify.Render(kind, notify.ContextFromRun(run))
	if err != nil {
		s.logger.ErrorContext(ctx, "render notification failed",
			"repository", run.Repository,
			"workflow_id", run.WorkflowID,
			"kind", string(kind),
			"error", err,
		)
		return out
	}
	msg.Recipients = rec.Addresses

	out.Delivered = s.dispatch(ctx, msg)
	return out
}

// dispatch fans msg out to every sink concurrently and returns the names of
// the sinks that accepted it, in registration order.
func (s *Service) dispatch(ctx context.Context, msg notify.Message) []string {
	if len(s.sinks) == 0 {
		return nil
	}

	ok := make([]bool, len(s.sinks))
	var wg sync.WaitGroup
	for i, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			failure := apperrors.BestEffort(ctx, s.logger, "notify."+entry.Name, func(ctx context.Context) error {
				return entry.Sink.Send(ctx, msg)
			})

			var err error
			if failure != nil {
				err = failure.Cause
			}
			metrics.EmitDelivery(s.metrics, metrics.DeliveryMetric{
				Target:   entry.Name,
				Kind:     string(msg.Kind),
				Duration: time.Since(start),
				Err:      err,
			})
			ok[i] = failure == nil
		}()
	}
	wg.Wait()

	var delivered []string
	for i, entry := range s.sinks {
		if ok[i] {
			delivered = append(delivered, entry.Name)
		}
	}
	return delivered
}

func (s *Service) publishUsage(ctx context.Context, run *model.WorkflowRun) bool {
	if s.usage == nil {
		return false
	}
	ev := usage.EventFromRun(run)
	if !ev.Publishable() {
		return false
	}

	start := time.Now()
	failure := apperrors.BestEffort(ctx, s.logger, "usage.publish", func(ctx context.Context) error {
		return s.usage.Publish(ctx, ev)
	})

	var err error
	if failure != nil {
		err = failure.Cause
	}
	metrics.EmitDelivery(s.metrics, metrics.DeliveryMetric{
		Target:   "usage",
		Duration: time.Since(start),
		Err:      err,
	})
	return failure == nil
}

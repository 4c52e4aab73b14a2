package notify

import (
	"context"

	"github.com/target/gha-notifier/internal/domain/model"
)

// Kind distinguishes the two notification templates.
type Kind string

const (
	// KindFailure is sent for every failed run.
	KindFailure Kind = "failure"
	// KindRecovery is sent once when a workflow returns to success.
	KindRecovery Kind = "recovery"
)

// NotificationContext is the closed set of fields templates may reference.
type NotificationContext struct {
	Repository    string
	WorkflowName  string
	WorkflowID    string
	RunID         string
	Branch        string
	ReportURL     string
	Actor         string
	Trigger       string
	CommitHash    string
	CommitMessage string
	CommitAuthor  string
	CommitEmail   string
}

// ContextFromRun copies the template-visible fields of a workflow run.
func ContextFromRun(run *model.WorkflowRun) NotificationContext {
	if run == nil {
		return NotificationContext{}
	}
	return NotificationContext{
		Repository:    run.Repository,
		WorkflowName:  run.Name,
		WorkflowID:    run.WorkflowID,
		RunID:         run.RunID,
		Branch:        run.HeadBranch,
		ReportURL:     run.HTMLURL,
		Actor:         run.Actor,
		Trigger:       run.Trigger,
		CommitHash:    run.CommitHash,
		CommitMessage: run.CommitLog,
		CommitAuthor:  run.CommitAuthor,
		CommitEmail:   run.CommitEmail,
	}
}

// Message is a rendered notification ready for delivery.
type Message struct {
	Kind       Kind
	Subject    string
	Body       string
	Recipients []string
	Context    NotificationContext
}

// Sink describes a destination capable of delivering workflow notifications.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, msg Message) error

// Send implements the Sink interface.
func (f SinkFunc) Send(ctx context.Context, msg Message) error {
	if f == nil {
		return nil
	}
	return f(ctx, msg)
}

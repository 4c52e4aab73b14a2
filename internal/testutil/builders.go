// Package testutil provides testing utilities and helpers for the notifier.
package testutil

import (
	"encoding/json"
	"strconv"

	"github.com/target/gha-notifier/internal/domain/model"
)

// WorkflowRunBuilder provides a fluent interface for building workflow_run
// webhook deliveries for testing.
type WorkflowRunBuilder struct {
	action string
	run    map[string]any
}

// NewWorkflowRun creates a builder for a completed run with sensible defaults.
func NewWorkflowRun() *WorkflowRunBuilder {
	return &WorkflowRunBuilder{
		action: model.ActionCompleted,
		run: map[string]any{
			"id":          int64(1001),
			"name":        "CI",
			"conclusion":  model.ConclusionSuccess,
			"workflow_id": int64(42),
			"html_url":    "https://github.com/apache/foo/actions/runs/1001",
			"jobs_url":    "https://api.github.com/repos/apache/foo/actions/runs/1001/jobs",
			"head_branch": "main",
			"repository":  map[string]any{"name": "foo"},
			"actor":       map[string]any{"login": "alice"},
			"triggering_actor": map[string]any{
				"login": "bob",
			},
			"head_commit": map[string]any{
				"id":      "abc123",
				"message": "Fix the build",
				"author": map[string]any{
					"name":  "Alice",
					"email": "alice@example.org",
				},
			},
		},
	}
}

// WithAction sets the top-level action.
func (b *WorkflowRunBuilder) WithAction(action string) *WorkflowRunBuilder {
	b.action = action
	return b
}

// WithConclusion sets the run conclusion.
func (b *WorkflowRunBuilder) WithConclusion(conclusion string) *WorkflowRunBuilder {
	b.run["conclusion"] = conclusion
	return b
}

// WithWorkflowID sets the numeric workflow id.
func (b *WorkflowRunBuilder) WithWorkflowID(id int64) *WorkflowRunBuilder {
	b.run["workflow_id"] = id
	return b
}

// WithRunID sets the numeric run id.
func (b *WorkflowRunBuilder) WithRunID(id int64) *WorkflowRunBuilder {
	b.run["id"] = id
	return b
}

// WithRepository sets repository.name.
func (b *WorkflowRunBuilder) WithRepository(name string) *WorkflowRunBuilder {
	b.run["repository"] = map[string]any{"name": name}
	return b
}

// WithName sets the workflow name.
func (b *WorkflowRunBuilder) WithName(name string) *WorkflowRunBuilder {
	b.run["name"] = name
	return b
}

// WithJobsURL sets jobs_url; an empty value removes it.
func (b *WorkflowRunBuilder) WithJobsURL(url string) *WorkflowRunBuilder {
	if url == "" {
		delete(b.run, "jobs_url")
		return b
	}
	b.run["jobs_url"] = url
	return b
}

// Without removes a top-level workflow_run field.
func (b *WorkflowRunBuilder) Without(field string) *WorkflowRunBuilder {
	delete(b.run, field)
	return b
}

// With sets an arbitrary workflow_run field, including null or wrongly typed values.
func (b *WorkflowRunBuilder) With(field string, value any) *WorkflowRunBuilder {
	b.run[field] = value
	return b
}

// Payload returns the JSON webhook body.
func (b *WorkflowRunBuilder) Payload() []byte {
	body, err := json.Marshal(map[string]any{
		"action":       b.action,
		"workflow_run": b.run,
	})
	if err != nil {
		panic("testutil: marshal workflow_run payload: " + err.Error())
	}
	return body
}

// Build returns the parsed run as the handler would see it.
func (b *WorkflowRunBuilder) Build() *model.WorkflowRun {
	run, ok := model.ParseDelivery(b.Payload())
	if !ok {
		panic("testutil: builder produced a payload the parser rejects (action " + strconv.Quote(b.action) + ")")
	}
	return run
}

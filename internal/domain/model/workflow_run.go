// Package model defines the data types shared by the webhook handler, the
// status tracker and the notification sinks.
package model

import (
	"bytes"
	"encoding/json"
)

// Conclusions reported by GitHub for completed workflow runs. Any other string
// supplied upstream is carried through unchanged.
const (
	ConclusionSuccess = "success"
	ConclusionFailure = "failure"
	ConclusionUnknown = "unknown"
)

// ActionCompleted is the only webhook action that is processed.
const ActionCompleted = "completed"

// Field defaults applied when a delivery omits a value.
const (
	DefaultWorkflowName = "???"
	DefaultRepository   = "infrastructure-unknown"
	DefaultBranch       = "???"
	DefaultActor        = "github"
	DefaultTrigger      = "github[bot]"
	DefaultAuthorField  = "??"
)

// WorkflowRun is the read-only view of a completed workflow run delivery.
type WorkflowRun struct {
	Conclusion   string
	Name         string
	HTMLURL      string
	WorkflowID   string
	RunID        string
	Repository   string
	HeadBranch   string
	Actor        string
	Trigger      string
	JobsURL      string
	CommitHash   string
	CommitLog    string
	CommitAuthor string
	CommitEmail  string
}

// ParseDelivery extracts a WorkflowRun from a raw webhook body.
// It returns false unless the body is a JSON object whose action is
// "completed" and which carries a workflow_run object. Missing, null or
// mistyped fields fall back to defaults; the parse itself never fails on them.
func ParseDelivery(body []byte) (*WorkflowRun, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil || doc == nil {
		return nil, false
	}

	if action, _ := doc["action"].(string); action != ActionCompleted {
		return nil, false
	}
	run, ok := doc["workflow_run"].(map[string]any)
	if !ok {
		return nil, false
	}

	commit := object(run, "head_commit")
	author := object(commit, "author")

	return &WorkflowRun{
		Conclusion:   text(run, "conclusion", ConclusionUnknown),
		Name:         text(run, "name", DefaultWorkflowName),
		HTMLURL:      text(run, "html_url", ""),
		WorkflowID:   text(run, "workflow_id", ""),
		RunID:        text(run, "id", ""),
		Repository:   text(object(run, "repository"), "name", DefaultRepository),
		HeadBranch:   text(run, "head_branch", DefaultBranch),
		Actor:        text(object(run, "actor"), "login", DefaultActor),
		Trigger:      text(object(run, "triggering_actor"), "login", DefaultTrigger),
		JobsURL:      text(run, "jobs_url", ""),
		CommitHash:   text(commit, "id", ""),
		CommitLog:    text(commit, "message", ""),
		CommitAuthor: text(author, "name", DefaultAuthorField),
		CommitEmail:  text(author, "email", DefaultAuthorField),
	}, true
}

func object(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]any)
	return v
}

// text returns m[key] as a string. Numbers keep their literal form so ids such
// as workflow_id compare equal whether GitHub sends them quoted or not.
func text(m map[string]any, key, fallback string) string {
	if m == nil {
		return fallback
	}
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fallback
	}
}

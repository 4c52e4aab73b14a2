package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/gha-notifier/internal/domain/model"
)

func sampleContext() NotificationContext {
	return ContextFromRun(&model.WorkflowRun{
		Conclusion:   model.ConclusionFailure,
		Name:         "CI",
		HTMLURL:      "https://github.com/apache/foo/actions/runs/1",
		WorkflowID:   "42",
		RunID:        "1",
		Repository:   "foo",
		HeadBranch:   "main",
		Actor:        "alice",
		Trigger:      "bob",
		CommitHash:   "abc123",
		CommitLog:    "Fix the build",
		CommitAuthor: "Alice",
		CommitEmail:  "alice@example.org",
	})
}

func TestRender_Failure(t *testing.T) {
	msg, err := Render(KindFailure, sampleContext())
	require.NoError(t, err)

	assert.Equal(t, KindFailure, msg.Kind)
	assert.Equal(t, `[GitHub] [foo]: Workflow run "CI" failed!`, msg.Subject)

	wantBody := strings.Join([]string{
		`The GitHub Actions job "CI" on foo.git has failed.`,
		`Run started by GitHub user alice (triggered by bob).`,
		``,
		`Head commit for run:`,
		`abc123 / Alice <alice@example.org>`,
		`Fix the build`,
		``,
		`Report URL: https://github.com/apache/foo/actions/runs/1`,
		``,
		`With regards,`,
		`GitHub Actions via GitBox`,
	}, "\n")
	assert.Equal(t, wantBody, msg.Body)
	assert.Equal(t, "42", msg.Context.WorkflowID)
}

func TestRender_Recovery(t *testing.T) {
	msg, err := Render(KindRecovery, sampleContext())
	require.NoError(t, err)

	assert.Equal(t, `[GitHub] [foo]: Workflow run "CI" succeeded again!`, msg.Subject)
	assert.True(t, strings.HasPrefix(msg.Body, `The GitHub Actions job "CI" on foo.git has succeeded.`))
	assert.False(t, strings.HasSuffix(msg.Body, "\n"), "body must be trimmed")
}

func TestRender_UnknownKind(t *testing.T) {
	_, err := Render(Kind("cancelled"), sampleContext())
	require.Error(t, err)
}

func TestParseTemplate(t *testing.T) {
	tmpl, err := ParseTemplate("custom", "  {{.Repository}} broke  \n-- \n  see {{.ReportURL}}  \n")
	require.NoError(t, err, "delimiter line with trailing space is accepted")

	subject, body, err := tmpl.Execute(NotificationContext{Repository: "foo", ReportURL: "https://x"})
	require.NoError(t, err)
	assert.Equal(t, "foo broke", subject)
	assert.Equal(t, "see https://x", body)
}

func TestParseTemplate_Errors(t *testing.T) {
	_, err := ParseTemplate("nodelim", "subject only")
	require.Error(t, err)

	_, err = ParseTemplate("badsyntax", "{{.Repository\n--\nbody")
	require.Error(t, err)

	tmpl, err := ParseTemplate("unknownfield", "{{.Password}}\n--\nbody")
	require.NoError(t, err)
	_, _, err = tmpl.Execute(NotificationContext{})
	require.Error(t, err, "fields outside NotificationContext must not render")
}

func TestSinkFunc(t *testing.T) {
	var got Message
	sink := SinkFunc(func(_ context.Context, msg Message) error {
		got = msg
		return nil
	})
	require.NoError(t, sink.Send(context.Background(), Message{Subject: "s"}))
	assert.Equal(t, "s", got.Subject)

	var nilSink SinkFunc
	assert.NoError(t, nilSink.Send(context.Background(), Message{}))
}

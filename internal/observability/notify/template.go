package notify

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// templateDelimiter separates the subject part from the body part.
const templateDelimiter = "--"

const failureTemplate = `
[GitHub] [{{.Repository}}]: Workflow run "{{.WorkflowName}}" failed!
--
The GitHub Actions job "{{.WorkflowName}}" on {{.Repository}}.git has failed.
Run started by GitHub user {{.Actor}} (triggered by {{.Trigger}}).

Head commit for run:
{{.CommitHash}} / {{.CommitAuthor}} <{{.CommitEmail}}>
{{.CommitMessage}}

Report URL: {{.ReportURL}}

With regards,
GitHub Actions via GitBox
`

const recoveryTemplate = `
[GitHub] [{{.Repository}}]: Workflow run "{{.WorkflowName}}" succeeded again!
--
The GitHub Actions job "{{.WorkflowName}}" on {{.Repository}}.git has succeeded.
Run started by GitHub user {{.Actor}} (triggered by {{.Trigger}}).

Head commit for run:
{{.CommitHash}} / {{.CommitAuthor}} <{{.CommitEmail}}>
{{.CommitMessage}}

Report URL: {{.ReportURL}}

With regards,
GitHub Actions via GitBox
`

// Template is a parsed two-part (subject, body) notification template.
type Template struct {
	subject *template.Template
	body    *template.Template
}

var builtin = map[Kind]*Template{
	KindFailure:  MustParseTemplate(string(KindFailure), failureTemplate),
	KindRecovery: MustParseTemplate(string(KindRecovery), recoveryTemplate),
}

// ParseTemplate splits raw at the first delimiter line and parses both parts.
func ParseTemplate(name, raw string) (*Template, error) {
	subjectSrc, bodySrc, err := splitTemplate(raw)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}

	subject, err := template.New(name + ".subject").Option("missingkey=error").Parse(subjectSrc)
	if err != nil {
		return nil, fmt.Errorf("template %s subject: %w", name, err)
	}
	body, err := template.New(name + ".body").Option("missingkey=error").Parse(bodySrc)
	if err != nil {
		return nil, fmt.Errorf("template %s body: %w", name, err)
	}
	return &Template{subject: subject, body: body}, nil
}

// MustParseTemplate is ParseTemplate that panics on error; for package-level templates.
func MustParseTemplate(name, raw string) *Template {
	t, err := ParseTemplate(name, raw)
	if err != nil {
		panic(err)
	}
	return t
}

func splitTemplate(raw string) (string, string, error) {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == templateDelimiter {
			return strings.Join(lines[:i], "\n"), strings.Join(lines[i+1:], "\n"), nil
		}
	}
	return "", "", errors.New("missing subject/body delimiter line")
}

// Execute renders the template against nc. Subject and body are trimmed.
func (t *Template) Execute(nc NotificationContext) (subject, body string, err error) {
	var sb, bb strings.Builder
	if err := t.subject.Execute(&sb, nc); err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	if err := t.body.Execute(&bb, nc); err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}
	return strings.TrimSpace(sb.String()), strings.TrimSpace(bb.String()), nil
}

// Render produces the message for kind. It has no side effects.
func Render(kind Kind, nc NotificationContext) (Message, error) {
	tmpl, ok := builtin[kind]
	if !ok {
		return Message{}, fmt.Errorf("unknown notification kind %q", kind)
	}
	subject, body, err := tmpl.Execute(nc)
	if err != nil {
		return Message{}, fmt.Errorf("render %s notification: %w", kind, err)
	}
	return Message{
		Kind:    kind,
		Subject: subject,
		Body:    body,
		Context: nc,
	}, nil
}

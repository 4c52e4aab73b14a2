package email

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/target/gha-notifier/internal/observability/notify"
)

type recordingSender struct {
	sent []*mail.Msg
	err  error
}

func (r *recordingSender) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	r.sent = append(r.sent, messages...)
	return r.err
}

func TestSink_Send(t *testing.T) {
	sender := &recordingSender{}
	sink, err := NewSinkWithSender("GitBox <git@apache.org>", sender)
	require.NoError(t, err)

	err = sink.Send(context.Background(), notify.Message{
		Kind:       notify.KindFailure,
		Subject:    `[GitHub] [foo]: Workflow run "CI" failed!`,
		Body:       "The GitHub Actions job failed.",
		Recipients: []string{"dev@foo.example.org"},
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	var buf bytes.Buffer
	_, err = sender.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()

	assert.Contains(t, raw, "git@apache.org")
	assert.Contains(t, raw, "dev@foo.example.org")
	assert.Contains(t, raw, `Workflow run "CI" failed!`)
	assert.Contains(t, raw, "The GitHub Actions job failed.")
}

func TestSink_SendErrors(t *testing.T) {
	sender := &recordingSender{err: errors.New("connection refused")}
	sink, err := NewSinkWithSender("git@apache.org", sender)
	require.NoError(t, err)

	err = sink.Send(context.Background(), notify.Message{Subject: "s", Body: "b"})
	require.Error(t, err, "no recipients")
	assert.Empty(t, sender.sent)

	err = sink.Send(context.Background(), notify.Message{Subject: "s", Body: "b", Recipients: []string{"not an address"}})
	require.Error(t, err)

	err = sink.Send(context.Background(), notify.Message{Subject: "s", Body: "b", Recipients: []string{"a@example.org"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNewSink_Validation(t *testing.T) {
	_, err := NewSink(Config{})
	require.Error(t, err)

	_, err = NewSinkWithSender("", &recordingSender{})
	require.Error(t, err)

	_, err = NewSinkWithSender("git@apache.org", nil)
	require.Error(t, err)

	sink, err := NewSink(Config{Host: "localhost", Port: 25, From: "git@apache.org"})
	require.NoError(t, err)
	assert.NotNil(t, sink)
}

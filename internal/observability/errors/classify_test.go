package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"testing"
)

type smtpError struct{ code int }

func (e *smtpError) Error() string { return fmt.Sprintf("smtp %d", e.code) }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "deadline", err: fmt.Errorf("post usage: %w", context.DeadlineExceeded), want: "timeout"},
		{name: "canceled", err: context.Canceled, want: "canceled"},
		{name: "plain", err: goerrors.New("boom"), want: "errors_errorstring"},
		{name: "wrapped custom", err: fmt.Errorf("send: %w", &smtpError{code: 451}), want: "errors_smtperror"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Fatalf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

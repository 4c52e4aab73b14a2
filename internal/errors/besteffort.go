package errors

import (
	"context"
	"fmt"
	"log/slog"

	obserrors "github.com/target/gha-notifier/internal/observability/errors"
)

// BestEffortError records a non-critical operation that failed without
// interrupting the caller.
type BestEffortError struct {
	// Op names the operation, e.g. "mail.send" or "usage.publish".
	Op string
	// Cause is the returned error, or a synthesized one when fn panicked.
	Cause error
	// Panicked is true when the operation panicked and was recovered.
	Panicked bool
}

// Error implements the error interface.
func (e *BestEffortError) Error() string {
	return fmt.Sprintf("best-effort %s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *BestEffortError) Unwrap() error {
	return e.Cause
}

// BestEffort runs fn and never lets its failure escape as a crash.
// A returned error or recovered panic is logged with the operation name and
// returned as *BestEffortError; callers are free to ignore it.
func BestEffort(
	ctx context.Context,
	logger *slog.Logger,
	op string,
	fn func(context.Context) error,
) (failure *BestEffortError) {
	if fn == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	defer func() {
		if r := recover(); r != nil {
			failure = &BestEffortError{Op: op, Cause: fmt.Errorf("panic: %v", r), Panicked: true}
			logger.ErrorContext(ctx, "best-effort operation panicked",
				"op", op,
				"panic", r,
			)
		}
	}()

	err := fn(ctx)
	if err == nil {
		return nil
	}

	attrs := []any{
		"op", op,
		"error", err,
		"error_class", obserrors.Classify(err),
	}
	if code := GetCode(err); code != "" {
		attrs = append(attrs, "error_code", string(code))
	}
	logger.WarnContext(ctx, "best-effort operation failed", attrs...)

	return &BestEffortError{Op: op, Cause: err}
}

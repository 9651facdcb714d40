package domain

import (
	"context"
	"fmt"
	"time"
)

// ValidationError indicates run parameters or preconditions failed a check.
// The coordinator suppresses it at scope exit: the run is reported FAILED
// but the trigger message is consumed without retry.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// TimeoutError indicates the run body did not finish within the configured
// wall-clock timeout. It unwraps to context.DeadlineExceeded so callers can
// match it with errors.Is.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("transfer run timed out after %s", e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

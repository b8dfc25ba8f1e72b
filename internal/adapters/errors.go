package adapters

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig marks configuration errors raised at construction time.
	ErrInvalidConfig = errors.New("invalid tool config")
	// ErrUnknownComplexity is returned for a complexity outside the declared levels.
	ErrUnknownComplexity = fmt.Errorf("%w: unknown complexity", ErrInvalidConfig)
	// ErrUnknownProvider is returned for a provider outside the declared backends.
	ErrUnknownProvider = fmt.Errorf("%w: unknown model provider", ErrInvalidConfig)
	// ErrTimeout identifies an execution that exceeded its deadline.
	ErrTimeout = errors.New("timed out")
)

// FailureKind classifies why an execution failed.
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureRecoverable FailureKind = "recoverable"
	FailurePermanent   FailureKind = "permanent"
	FailureTimeout     FailureKind = "timeout"
)

// Failure wraps an execution error with its retry classification.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind) + " failure"
	}
	return f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Recoverable marks err as transient and eligible for retry.
func Recoverable(err error) error {
	if err == nil {
		return nil
	}
	return &Failure{Kind: FailureRecoverable, Err: err}
}

// Permanent marks err as non-recoverable; it is never retried.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &Failure{Kind: FailurePermanent, Err: err}
}

// Permanentf is Permanent(fmt.Errorf(format, args...)).
func Permanentf(format string, args ...any) error {
	return Permanent(fmt.Errorf(format, args...))
}

// KindOf reports how err should be treated by the retry loop.
// Unclassified errors are considered recoverable.
func KindOf(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	if errors.Is(err, context.Canceled) {
		return FailurePermanent
	}
	return FailureRecoverable
}

package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// Attempt performs one try of a task. A nil error means the attempt
// succeeded; a failed attempt may still return partial output and the tokens
// it consumed. Attempts should honor ctx so external work stops at the deadline.
type Attempt func(ctx context.Context) (ExecutionResult, error)

// Run executes attempt under the adapter's single per-call deadline,
// retrying recoverable failures up to MaxRetries additional times with
// exponential backoff. The returned result is also stored as the last result.
func (b *Base) Run(ctx context.Context, attempt Attempt) ExecutionResult {
	b.state = StateExecuting
	start := time.Now()
	timeout := b.cfg.Timeout()
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		result ExecutionResult
		err    error
		tokens int
	)
	for try := 0; try <= b.cfg.MaxRetries; try++ {
		if try > 0 {
			wait := retryablehttp.DefaultBackoff(b.backoffMin, b.backoffMax, try-1, nil)
			b.logger.Debug("retrying after recoverable failure",
				zap.Int("attempt", try+1),
				zap.Duration("backoff", wait),
				zap.Error(err))
			if !sleepContext(runCtx, wait) {
				err = deadlineError(runCtx, timeout, err)
				break
			}
		}

		result, err = runAttempt(runCtx, attempt)
		tokens += result.TokensUsed
		if err == nil {
			break
		}
		if runCtx.Err() != nil {
			err = deadlineError(runCtx, timeout, err)
			break
		}
		if KindOf(err) == FailurePermanent {
			break
		}
		b.logger.Debug("attempt failed", zap.Int("attempt", try+1), zap.Error(err))
	}

	result.TokensUsed = tokens
	result.Tool = b.name
	result.Model = b.cfg.Model
	result.ExecutionTimeSeconds = time.Since(start).Seconds()
	if err == nil {
		result.Success = true
		result.Error = ""
		result.Failure = FailureNone
	} else {
		if KindOf(err) == FailureTimeout && !errors.Is(err, ErrTimeout) {
			err = fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		result.Success = false
		result.Error = err.Error()
		result.Failure = KindOf(err)
		b.logger.Warn("execution failed", zap.String("failure", string(result.Failure)), zap.Error(err))
	}
	return b.record(result)
}

// runAttempt returns as soon as ctx is done even if attempt ignores it.
func runAttempt(ctx context.Context, attempt Attempt) (ExecutionResult, error) {
	type outcome struct {
		result ExecutionResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: Permanentf("adapter panic: %v", r)}
			}
		}()
		res, err := attempt(ctx)
		done <- outcome{result: res, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		select {
		case out := <-done:
			return out.result, out.err
		default:
		}
		return ExecutionResult{}, ctx.Err()
	}
}

func deadlineError(ctx context.Context, timeout time.Duration, last error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		if last != nil && !errors.Is(last, context.DeadlineExceeded) && !errors.Is(last, ErrTimeout) {
			return fmt.Errorf("%w after %s: %v", ErrTimeout, timeout, last)
		}
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	return Permanent(fmt.Errorf("execution canceled: %w", ctx.Err()))
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

package adapters

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// MockOptions scripts the behavior of a MockAdapter.
type MockOptions struct {
	// Failures are returned by successive attempts before the mock succeeds.
	Failures []error
	// Delay is how long each attempt works before answering.
	Delay time.Duration
	// Healthy is the HealthCheck answer; nil means healthy.
	Healthy *bool
	// Validate backs ValidateOutput for successful results; nil accepts them.
	Validate    func(ctx context.Context, cfg ToolConfig, result ExecutionResult) bool
	BaseOptions []BaseOption
}

// MockAdapter is a deterministic, offline adapter for tests and demos. It
// never touches the filesystem.
type MockAdapter struct {
	Base
	opts     MockOptions
	attempts atomic.Int32
}

// NewMockAdapter constructs a MockAdapter.
func NewMockAdapter(cfg ToolConfig, opts MockOptions) (*MockAdapter, error) {
	base, err := NewBase("mock", cfg, opts.BaseOptions...)
	if err != nil {
		return nil, err
	}
	return &MockAdapter{Base: base, opts: opts}, nil
}

func (m *MockAdapter) Version() string { return "mock" }

// Attempts returns how many attempts have been made across all Execute calls.
func (m *MockAdapter) Attempts() int { return int(m.attempts.Load()) }

func (m *MockAdapter) Execute(ctx context.Context, task Task) ExecutionResult {
	return m.Run(ctx, func(ctx context.Context) (ExecutionResult, error) {
		n := int(m.attempts.Add(1)) - 1
		if strings.TrimSpace(task.Prompt) == "" {
			return ExecutionResult{}, Permanentf("prompt is required")
		}
		if m.opts.Delay > 0 {
			timer := time.NewTimer(m.opts.Delay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ExecutionResult{}, ctx.Err()
			case <-timer.C:
			}
		}
		tokens := (len(task.Prompt)+len(task.Context))/4 + 50
		if n < len(m.opts.Failures) && m.opts.Failures[n] != nil {
			return ExecutionResult{TokensUsed: tokens}, m.opts.Failures[n]
		}
		return ExecutionResult{
			Output:        fmt.Sprintf("mock run completed: %s", task.Prompt),
			FilesModified: append([]string(nil), task.Files...),
			TokensUsed:    tokens,
		}, nil
	})
}

func (m *MockAdapter) ValidateOutput(ctx context.Context, result ExecutionResult) bool {
	if !result.Success {
		return false
	}
	if m.opts.Validate == nil {
		return true
	}
	return m.opts.Validate(ctx, m.Config(), result)
}

func (m *MockAdapter) HealthCheck(ctx context.Context) bool {
	if m.opts.Healthy == nil {
		return true
	}
	return *m.opts.Healthy
}

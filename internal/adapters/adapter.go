// Package adapters defines the contract every coding-assistant integration
// implements, the configuration it runs under, and the result it produces.
//
// Example:
//
//	cfg, err := adapters.ForComplexity(adapters.ComplexitySimple, "claude-3-5-haiku-latest", adapters.ProviderAnthropic)
//	if err != nil {
//		return err
//	}
//	tool, err := aider.New(cfg, aider.Options{})
//	if err != nil {
//		return err
//	}
//	result := tool.Execute(ctx, adapters.Task{Prompt: "Fix the nil dereference in utils.go", Files: []string{"utils.go"}})
//	if result.Success && tool.ValidateOutput(ctx, result) {
//		fmt.Println(tool.Cost())
//	}
package adapters

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Task is the input of one Execute call.
type Task struct {
	Prompt string
	// Files scopes the tool to these paths, in order. Empty means the whole project.
	Files []string
	// Context primes the tool with extra text such as a repository digest.
	Context string
}

// ToolAdapter is implemented by each integrated coding-assistant tool.
type ToolAdapter interface {
	Name() string
	Version() string
	Config() ToolConfig
	// Execute runs the task. Tool failures are reported in the result, never as a panic or error.
	Execute(ctx context.Context, task Task) ExecutionResult
	// ValidateOutput verifies an already produced result without re-running the task.
	ValidateOutput(ctx context.Context, result ExecutionResult) bool
	// Cost returns the cost estimate of the last stored result, or 0 before any execution.
	Cost() float64
	// HealthCheck is a quick, non-mutating availability probe.
	HealthCheck(ctx context.Context) bool
}

// State is the lifecycle position of an adapter instance.
type State string

const (
	StateIdle      State = "idle"
	StateExecuting State = "executing"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// BaseOption customizes a Base.
type BaseOption func(*Base)

// WithLogger sets the logger used for attempt diagnostics.
func WithLogger(logger *zap.Logger) BaseOption {
	return func(b *Base) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithBackoff sets the bounds of the exponential backoff between attempts.
func WithBackoff(min, max time.Duration) BaseOption {
	return func(b *Base) {
		b.backoffMin = min
		b.backoffMax = max
	}
}

// WithPricing sets the rates used by Cost.
func WithPricing(p Pricing) BaseOption {
	return func(b *Base) { b.pricing = p }
}

// Base carries the state shared by all adapters: the config, the last result,
// and the retry loop. It is not safe for concurrent Execute calls; use one
// instance per in-flight task.
type Base struct {
	name       string
	cfg        ToolConfig
	logger     *zap.Logger
	pricing    Pricing
	backoffMin time.Duration
	backoffMax time.Duration
	state      State
	last       *ExecutionResult
}

// NewBase validates cfg and takes a private copy of it.
func NewBase(name string, cfg ToolConfig, opts ...BaseOption) (Base, error) {
	if err := cfg.Validate(); err != nil {
		return Base{}, err
	}
	b := Base{
		name:       name,
		cfg:        cfg.Clone(),
		logger:     zap.NewNop(),
		pricing:    DefaultPricing,
		backoffMin: 500 * time.Millisecond,
		backoffMax: 5 * time.Second,
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(&b)
	}
	b.logger = b.logger.With(zap.String("tool", name), zap.String("model", cfg.Model))
	return b, nil
}

// Name returns the adapter name.
func (b *Base) Name() string { return b.name }

// Config returns a copy of the adapter configuration.
func (b *Base) Config() ToolConfig { return b.cfg.Clone() }

// Logger returns the adapter logger.
func (b *Base) Logger() *zap.Logger { return b.logger }

// State returns the lifecycle state.
func (b *Base) State() State { return b.state }

// LastResult returns the most recent result, if any.
func (b *Base) LastResult() (ExecutionResult, bool) {
	if b.last == nil {
		return ExecutionResult{}, false
	}
	return *b.last, true
}

// Cost returns the cost estimate of the stored last result.
func (b *Base) Cost() float64 {
	if b.last == nil {
		return 0.0
	}
	return b.last.CostEstimateWith(b.pricing)
}

// HealthCheck reports true; adapters with a meaningful probe override it.
func (b *Base) HealthCheck(ctx context.Context) bool { return true }

// WorkDir resolves the directory the tool runs in.
func (b *Base) WorkDir() (string, error) {
	return resolveWorkDir(b.cfg.WorkingDir)
}

func (b *Base) String() string {
	return fmt.Sprintf("%s(model=%s)", b.name, b.cfg.Model)
}

func (b *Base) record(result ExecutionResult) ExecutionResult {
	stored := result
	stored.FilesModified = append([]string(nil), result.FilesModified...)
	b.last = &stored
	if result.Success {
		b.state = StateSucceeded
	} else {
		b.state = StateFailed
	}
	return result
}

package adapters

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func mockConfig(t *testing.T, opts ...Option) ToolConfig {
	t.Helper()
	cfg, err := ForComplexity(ComplexitySimple, "mock-model", ProviderLocal, opts...)
	require.NoError(t, err)
	return cfg
}

func noBackoff() []BaseOption {
	return []BaseOption{WithBackoff(0, 0)}
}

func TestFreshAdapterCostsNothing(t *testing.T) {
	m, err := NewMockAdapter(mockConfig(t), MockOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0.0, m.Cost())
	assert.Equal(t, StateIdle, m.State())
	_, ok := m.LastResult()
	assert.False(t, ok)
}

func TestInvalidConfigRejectedAtConstruction(t *testing.T) {
	_, err := NewMockAdapter(ToolConfig{Model: "m", Provider: ProviderLocal}, MockOptions{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSuccessfulExecution(t *testing.T) {
	m, err := NewMockAdapter(mockConfig(t), MockOptions{})
	require.NoError(t, err)

	result := m.Execute(context.Background(), Task{Prompt: "add a test", Files: []string{"a.go"}})

	require.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Equal(t, FailureNone, result.Failure)
	assert.Equal(t, []string{"a.go"}, result.FilesModified)
	assert.Positive(t, result.TokensUsed)
	assert.GreaterOrEqual(t, result.ExecutionTimeSeconds, 0.0)
	assert.Equal(t, "mock", result.Tool)
	assert.Equal(t, "mock-model", result.Model)
	assert.Equal(t, StateSucceeded, m.State())
	assert.Equal(t, result.CostEstimate(), m.Cost())
	assert.True(t, m.ValidateOutput(context.Background(), result))
}

func TestRetriesRecoverableFailuresUpToMaxRetries(t *testing.T) {
	transient := errors.New("rate limited")
	m, err := NewMockAdapter(mockConfig(t, WithMaxRetries(2)), MockOptions{
		Failures:    []error{transient, transient, transient, transient},
		BaseOptions: noBackoff(),
	})
	require.NoError(t, err)

	result := m.Execute(context.Background(), Task{Prompt: "flaky"})

	assert.False(t, result.Success)
	assert.Equal(t, 3, m.Attempts())
	assert.Equal(t, FailureRecoverable, result.Failure)
	assert.Contains(t, result.Error, "rate limited")
	assert.Equal(t, StateFailed, m.State())
}

func TestRecoversAfterTransientFailure(t *testing.T) {
	m, err := NewMockAdapter(mockConfig(t, WithMaxRetries(2)), MockOptions{
		Failures:    []error{Recoverable(errors.New("connection reset"))},
		BaseOptions: noBackoff(),
	})
	require.NoError(t, err)

	result := m.Execute(context.Background(), Task{Prompt: "retry me"})

	assert.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Equal(t, 2, m.Attempts())
	// Tokens of the failed attempt are still billed.
	single := (len("retry me"))/4 + 50
	assert.Equal(t, 2*single, result.TokensUsed)
}

func TestZeroRetriesMeansOneAttempt(t *testing.T) {
	m, err := NewMockAdapter(mockConfig(t, WithMaxRetries(0)), MockOptions{
		Failures:    []error{errors.New("nope")},
		BaseOptions: noBackoff(),
	})
	require.NoError(t, err)

	result := m.Execute(context.Background(), Task{Prompt: "once"})
	assert.False(t, result.Success)
	assert.Equal(t, 1, m.Attempts())
}

func TestPermanentFailureIsNotRetried(t *testing.T) {
	m, err := NewMockAdapter(mockConfig(t, WithMaxRetries(3)), MockOptions{
		Failures:    []error{Permanentf("invalid api key")},
		BaseOptions: noBackoff(),
	})
	require.NoError(t, err)

	result := m.Execute(context.Background(), Task{Prompt: "x"})

	assert.False(t, result.Success)
	assert.Equal(t, 1, m.Attempts())
	assert.Equal(t, FailurePermanent, result.Failure)
	assert.Equal(t, "invalid api key", result.Error)
}

func TestEmptyPromptFailsWithoutPanic(t *testing.T) {
	m, err := NewMockAdapter(mockConfig(t), MockOptions{BaseOptions: noBackoff()})
	require.NoError(t, err)

	result := m.Execute(context.Background(), Task{Prompt: "   "})
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.False(t, m.ValidateOutput(context.Background(), result))
}

func TestTimeoutProducesTimeoutResult(t *testing.T) {
	defer goleak.VerifyNone(t)

	m, err := NewMockAdapter(mockConfig(t, WithTimeoutSeconds(1), WithMaxRetries(5)), MockOptions{
		Delay:       10 * time.Second,
		BaseOptions: noBackoff(),
	})
	require.NoError(t, err)

	start := time.Now()
	result := m.Execute(context.Background(), Task{Prompt: "slow"})
	elapsed := time.Since(start)

	assert.False(t, result.Success)
	assert.True(t, result.TimedOut())
	assert.True(t, strings.Contains(result.Error, "timed out"), result.Error)
	assert.Less(t, elapsed, 3*time.Second)
	assert.GreaterOrEqual(t, result.ExecutionTimeSeconds, 0.9)
}

func TestCanceledContextIsPermanent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m, err := NewMockAdapter(mockConfig(t), MockOptions{Delay: time.Second, BaseOptions: noBackoff()})
	require.NoError(t, err)

	result := m.Execute(ctx, Task{Prompt: "never"})
	assert.False(t, result.Success)
	assert.Equal(t, FailurePermanent, result.Failure)
}

func TestPanickingAttemptBecomesFailure(t *testing.T) {
	base, err := NewBase("panicky", mockConfig(t, WithMaxRetries(3)), noBackoff()...)
	require.NoError(t, err)
	calls := 0

	result := base.Run(context.Background(), func(ctx context.Context) (ExecutionResult, error) {
		calls++
		panic("boom")
	})

	assert.False(t, result.Success)
	assert.Equal(t, FailurePermanent, result.Failure)
	assert.Contains(t, result.Error, "boom")
	assert.Equal(t, 1, calls)
}

func TestErrorPresentExactlyWhenFailed(t *testing.T) {
	base, err := NewBase("scripted", mockConfig(t, WithMaxRetries(0)), noBackoff()...)
	require.NoError(t, err)

	ok := base.Run(context.Background(), func(ctx context.Context) (ExecutionResult, error) {
		return ExecutionResult{Output: "fine", Error: "stale warning"}, nil
	})
	assert.True(t, ok.Success)
	assert.Empty(t, ok.Error)

	failed := base.Run(context.Background(), func(ctx context.Context) (ExecutionResult, error) {
		return ExecutionResult{Success: true, Output: "partial"}, errors.New("exit 2")
	})
	assert.False(t, failed.Success)
	assert.Equal(t, "exit 2", failed.Error)
	assert.Equal(t, "partial", failed.Output)
}

func TestCostTracksLastResultOnly(t *testing.T) {
	m, err := NewMockAdapter(mockConfig(t), MockOptions{})
	require.NoError(t, err)

	first := m.Execute(context.Background(), Task{Prompt: strings.Repeat("long prompt ", 100)})
	second := m.Execute(context.Background(), Task{Prompt: "short"})

	assert.Greater(t, first.TokensUsed, second.TokensUsed)
	assert.Equal(t, second.CostEstimate(), m.Cost())
}

func TestRetryLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	m, err := NewMockAdapter(mockConfig(t, WithMaxRetries(1)), MockOptions{
		Failures:    []error{errors.New("first"), errors.New("second")},
		BaseOptions: append(noBackoff(), WithLogger(zap.New(core))),
	})
	require.NoError(t, err)

	m.Execute(context.Background(), Task{Prompt: "log me"})

	assert.Equal(t, 1, logs.FilterMessage("retrying after recoverable failure").Len())
	failed := logs.FilterMessage("execution failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "mock", failed[0].ContextMap()["tool"])
}

func TestMockHealthCheck(t *testing.T) {
	healthy, err := NewMockAdapter(mockConfig(t), MockOptions{})
	require.NoError(t, err)
	assert.True(t, healthy.HealthCheck(context.Background()))

	down := false
	unhealthy, err := NewMockAdapter(mockConfig(t), MockOptions{Healthy: &down})
	require.NoError(t, err)
	assert.False(t, unhealthy.HealthCheck(context.Background()))
}

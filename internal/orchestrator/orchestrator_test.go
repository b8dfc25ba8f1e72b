package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vishkar/internal/adapters"
	"vishkar/internal/events"
	"vishkar/internal/validation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recorder struct {
	events []events.Event
}

func (r *recorder) Emit(e events.Event) { r.events = append(r.events, e) }

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []events.Type {
	var out []events.Type
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestOrchestrator(t *testing.T, reg *Registry, opts Options) (*Orchestrator, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts.BaseOptions = append(opts.BaseOptions, adapters.WithBackoff(0, 0))
	return New(reg, rec, zaptest.NewLogger(t), opts), rec
}

func TestResolve(t *testing.T) {
	reg := Mock(adapters.MockOptions{})

	name, auto, err := reg.Resolve(ToolAuto, adapters.ComplexityComplex, DefaultSelection())
	require.NoError(t, err)
	assert.Equal(t, "goose", name)
	assert.True(t, auto)

	name, auto, err = reg.Resolve("", adapters.ComplexitySimple, Selection{adapters.ComplexitySimple: "local"})
	require.NoError(t, err)
	assert.Equal(t, "local", name)
	assert.True(t, auto)

	name, auto, err = reg.Resolve("aider", adapters.ComplexityComplex, nil)
	require.NoError(t, err)
	assert.Equal(t, "aider", name)
	assert.False(t, auto)

	_, _, err = reg.Resolve("cursor", adapters.ComplexitySimple, nil)
	assert.ErrorIs(t, err, ErrUnknownTool)

	_, _, err = reg.Resolve(ToolAuto, adapters.Complexity("huge"), nil)
	assert.ErrorIs(t, err, adapters.ErrUnknownComplexity)
}

func TestBuiltinNames(t *testing.T) {
	assert.Equal(t, []string{"aider", "goose", "local", "mock"}, Builtin(BuiltinOptions{}).Names())
}

func TestRunSuccess(t *testing.T) {
	o, rec := newTestOrchestrator(t, Mock(adapters.MockOptions{}), Options{})
	expected := "mock run completed: Add logging"

	res, err := o.Run(context.Background(), Request{
		Tool:       ToolAuto,
		Complexity: adapters.ComplexityMedium,
		Model:      "claude-3-5-sonnet-latest",
		Provider:   adapters.ProviderAnthropic,
		Task:       adapters.Task{Prompt: "Add logging"},
		Validate:   true,
		Expected:   &expected,
	})

	require.NoError(t, err)
	_, err = uuid.Parse(res.RunID)
	assert.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.True(t, res.AutoSelect)
	assert.Equal(t, 60, res.Config.TimeoutSeconds)
	assert.True(t, res.Result.Success)
	require.NotNil(t, res.Result.MatchPercentage)
	assert.Equal(t, 100.0, *res.Result.MatchPercentage)
	require.NotNil(t, res.Valid)
	assert.True(t, *res.Valid)
	assert.Equal(t, res.Result.CostEstimate(), res.Cost)
	assert.Equal(t, []events.Type{
		events.RunStarted,
		events.ToolSelected,
		events.ExecutionStarted,
		events.ExecutionFinished,
		events.ValidationFinished,
		events.RunFinished,
	}, rec.types())
	assert.Len(t, res.Events, 6)
}

func TestRunToolFailureIsNotAnError(t *testing.T) {
	reg := Mock(adapters.MockOptions{Failures: []error{adapters.Permanentf("no credentials")}})
	o, rec := newTestOrchestrator(t, reg, Options{})

	res, err := o.Run(context.Background(), Request{
		Tool:       "aider",
		Complexity: adapters.ComplexitySimple,
		Model:      "gpt-4o",
		Provider:   adapters.ProviderOpenAI,
		Task:       adapters.Task{Prompt: "p"},
		Validate:   true,
	})

	require.NoError(t, err)
	assert.Equal(t, StatusFailure, res.Status)
	assert.Equal(t, "no credentials", res.Result.Error)
	assert.Nil(t, res.Valid)
	assert.NotContains(t, rec.types(), events.ValidationFinished)
}

func TestRunValidationFailureFailsRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o644))
	o, _ := newTestOrchestrator(t, Mock(adapters.MockOptions{}), Options{Validator: validation.New(validation.Options{})})

	res, err := o.Run(context.Background(), Request{
		Tool:       "mock",
		Complexity: adapters.ComplexitySimple,
		Model:      "m",
		Provider:   adapters.ProviderLocal,
		Options:    []adapters.Option{adapters.WithWorkingDir(dir)},
		Task:       adapters.Task{Prompt: "p", Files: []string{"bad.json"}},
		Validate:   true,
	})

	require.NoError(t, err)
	assert.True(t, res.Result.Success)
	assert.Equal(t, StatusFailure, res.Status)
}

func TestRunConfigErrors(t *testing.T) {
	o, rec := newTestOrchestrator(t, Mock(adapters.MockOptions{}), Options{})

	_, err := o.Run(context.Background(), Request{Complexity: adapters.Complexity("epic"), Model: "m", Provider: adapters.ProviderLocal, Task: adapters.Task{Prompt: "p"}})
	assert.ErrorIs(t, err, adapters.ErrUnknownComplexity)

	_, err = o.Run(context.Background(), Request{Tool: "cursor", Complexity: adapters.ComplexitySimple, Model: "m", Provider: adapters.ProviderLocal, Task: adapters.Task{Prompt: "p"}})
	assert.ErrorIs(t, err, ErrUnknownTool)
	assert.Equal(t, events.RunError, rec.events[len(rec.events)-1].Type)
}

func TestRunWithRepoContext(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Demo project\n"), 0o644))
	var captured adapters.Task
	reg := NewRegistry()
	reg.Register("capture", func(cfg adapters.ToolConfig, deps Deps) (adapters.ToolAdapter, error) {
		m, err := adapters.NewMockAdapter(cfg, adapters.MockOptions{BaseOptions: deps.BaseOptions})
		if err != nil {
			return nil, err
		}
		return &capturing{MockAdapter: m, seen: &captured}, nil
	})
	o, _ := newTestOrchestrator(t, reg, Options{})

	_, err := o.Run(context.Background(), Request{
		Tool:        "capture",
		Complexity:  adapters.ComplexitySimple,
		Model:       "m",
		Provider:    adapters.ProviderLocal,
		Options:     []adapters.Option{adapters.WithWorkingDir(dir)},
		Task:        adapters.Task{Prompt: "p", Context: "extra notes"},
		RepoContext: true,
	})

	require.NoError(t, err)
	assert.Contains(t, captured.Context, "# Demo project")
	assert.True(t, strings.HasSuffix(captured.Context, "extra notes"))
}

type capturing struct {
	*adapters.MockAdapter
	seen *adapters.Task
}

func (c *capturing) Execute(ctx context.Context, task adapters.Task) adapters.ExecutionResult {
	*c.seen = task
	return c.MockAdapter.Execute(ctx, task)
}

func TestHealthAll(t *testing.T) {
	down := false
	reg := NewRegistry()
	reg.Register("up", mockFactory(adapters.MockOptions{}))
	reg.Register("down", mockFactory(adapters.MockOptions{Healthy: &down}))
	reg.Register("broken", func(cfg adapters.ToolConfig, deps Deps) (adapters.ToolAdapter, error) {
		return nil, errors.New("not configured")
	})
	o, rec := newTestOrchestrator(t, reg, Options{})
	cfg, err := adapters.NewToolConfig("m", adapters.ProviderLocal)
	require.NoError(t, err)

	results := o.HealthAll(context.Background(), []string{"up", "down", "broken", "missing"}, cfg)

	require.Len(t, results, 4)
	assert.True(t, results[0].Healthy)
	assert.False(t, results[1].Healthy)
	assert.False(t, results[2].Healthy)
	assert.Equal(t, "not configured", results[2].Error)
	assert.False(t, results[3].Healthy)
	assert.Contains(t, results[3].Error, "unknown tool")
	assert.Len(t, rec.events, 4)
}

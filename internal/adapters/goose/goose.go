// Package goose adapts Block's goose agent, run headless with "goose run".
package goose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vishkar/internal/adapters"
	"vishkar/internal/validation"
	"vishkar/internal/workspace"

	"go.uber.org/zap"
)

const (
	Name          = "goose"
	DefaultBinary = "goose"
	version       = "1.0.0"

	healthTimeout = 800 * time.Millisecond
)

// providerNames maps a model provider to goose's GOOSE_PROVIDER value.
var providerNames = map[adapters.ModelProvider]string{
	adapters.ProviderAnthropic: "anthropic",
	adapters.ProviderOpenAI:    "openai",
	adapters.ProviderLocal:     "ollama",
}

type Options struct {
	Binary      string
	Validator   *validation.Validator
	BaseOptions []adapters.BaseOption
}

// Adapter runs one goose session per attempt. Goose reports no token usage,
// so tokens are estimated from prompt and output length.
type Adapter struct {
	adapters.Base
	binary    string
	validator *validation.Validator
}

func New(cfg adapters.ToolConfig, opts Options) (*Adapter, error) {
	base, err := adapters.NewBase(Name, cfg, opts.BaseOptions...)
	if err != nil {
		return nil, err
	}
	binary := opts.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	return &Adapter{Base: base, binary: binary, validator: opts.Validator}, nil
}

func (a *Adapter) Version() string { return version }

func (a *Adapter) Execute(ctx context.Context, task adapters.Task) adapters.ExecutionResult {
	return a.Run(ctx, func(ctx context.Context) (adapters.ExecutionResult, error) {
		return a.attempt(ctx, task)
	})
}

func (a *Adapter) attempt(ctx context.Context, task adapters.Task) (adapters.ExecutionResult, error) {
	dir, err := a.WorkDir()
	if err != nil {
		return adapters.ExecutionResult{}, adapters.Permanent(err)
	}
	if err := adapters.CheckTask(task, dir); err != nil {
		return adapters.ExecutionResult{}, err
	}

	before, tracked, err := workspace.Take(dir)
	if err != nil {
		a.Logger().Debug("workspace snapshot unavailable", zap.Error(err))
	}

	cfg := a.Config()
	text := instructions(task)
	proc, runErr := adapters.RunProcess(ctx, adapters.Invocation{
		Binary: a.binary,
		Args:   []string{"run", "--no-session", "--text", text},
		Dir:    dir,
		Env:    a.env(cfg),
	})

	result := adapters.ExecutionResult{
		Output:     proc.Stdout,
		TokensUsed: (len(text) + len(proc.Stdout)) / 4,
	}
	if tracked {
		if after, ok, err := workspace.Take(dir); err == nil && ok {
			result.FilesModified = workspace.Changed(before, after)
		}
	}
	return result, runErr
}

// env layers the provider and model selection under any explicit overrides.
func (a *Adapter) env(cfg adapters.ToolConfig) map[string]string {
	env := map[string]string{
		"GOOSE_PROVIDER": providerNames[cfg.Provider],
		"GOOSE_MODEL":    cfg.Model,
	}
	for key, value := range cfg.EnvVars {
		env[key] = value
	}
	return env
}

// instructions folds scoped files and context into the single text goose accepts.
func instructions(task adapters.Task) string {
	var b strings.Builder
	if task.Context != "" {
		b.WriteString("Context:\n")
		b.WriteString(task.Context)
		b.WriteString("\n\n")
	}
	b.WriteString(task.Prompt)
	if len(task.Files) > 0 {
		fmt.Fprintf(&b, "\n\nOnly modify these files: %s", strings.Join(task.Files, ", "))
	}
	return b.String()
}

func (a *Adapter) ValidateOutput(ctx context.Context, result adapters.ExecutionResult) bool {
	if !result.Success {
		return false
	}
	if a.validator == nil {
		return true
	}
	return a.validator.Validate(ctx, a.Config(), result).Passed
}

func (a *Adapter) HealthCheck(ctx context.Context) bool {
	return adapters.ProbeVersion(ctx, a.binary, healthTimeout)
}

// Package aider adapts the aider command-line pair programmer.
package aider

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"vishkar/internal/adapters"
	"vishkar/internal/validation"
	"vishkar/internal/workspace"

	"go.uber.org/zap"
)

const (
	Name          = "aider"
	DefaultBinary = "aider"
	version       = "1.0.0"

	healthTimeout = 800 * time.Millisecond
)

// Options configures an Adapter.
type Options struct {
	// Binary is the aider executable; defaults to "aider" on PATH.
	Binary string
	// Validator backs ValidateOutput; nil accepts any successful result.
	Validator   *validation.Validator
	BaseOptions []adapters.BaseOption
}

// Adapter drives aider in non-interactive mode, one process per attempt.
type Adapter struct {
	adapters.Base
	binary    string
	validator *validation.Validator
}

// New constructs an aider adapter. It fails if cfg is invalid.
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

	args := a.args(task)
	if task.Context != "" {
		path, cleanup, err := writeContextFile(task.Context)
		if err != nil {
			return adapters.ExecutionResult{}, err
		}
		defer cleanup()
		args = append(args, "--read", path)
	}
	args = append(args, task.Files...)

	before, tracked, err := workspace.Take(dir)
	if err != nil {
		a.Logger().Debug("workspace snapshot unavailable", zap.Error(err))
	}

	cfg := a.Config()
	a.Logger().Debug("starting aider", zap.String("dir", dir), zap.Int("files", len(task.Files)))
	proc, runErr := adapters.RunProcess(ctx, adapters.Invocation{
		Binary: a.binary,
		Args:   args,
		Dir:    dir,
		Env:    cfg.EnvVars,
	})

	parsed := parseOutput(proc.Stdout)
	files := parsed.files
	if tracked {
		if after, ok, err := workspace.Take(dir); err == nil && ok {
			files = mergeFiles(files, workspace.Changed(before, after))
		}
	}
	result := adapters.ExecutionResult{
		Output:        proc.Stdout,
		FilesModified: files,
		TokensUsed:    parsed.tokens,
	}
	return result, runErr
}

func (a *Adapter) args(task adapters.Task) []string {
	return []string{
		"--message", task.Prompt,
		"--model", a.Config().Model,
		"--yes-always",
		"--no-auto-commits",
		"--no-pretty",
	}
}

// ValidateOutput runs the configured checks against result. A failed result never validates.
func (a *Adapter) ValidateOutput(ctx context.Context, result adapters.ExecutionResult) bool {
	if !result.Success {
		return false
	}
	if a.validator == nil {
		return true
	}
	return a.validator.Validate(ctx, a.Config(), result).Passed
}

// HealthCheck reports whether aider is installed and answers --version quickly.
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	return adapters.ProbeVersion(ctx, a.binary, healthTimeout)
}

func writeContextFile(text string) (string, func(), error) {
	file, err := os.CreateTemp("", "vishkar-context-*.md")
	if err != nil {
		return "", nil, fmt.Errorf("create context file: %w", err)
	}
	cleanup := func() { _ = os.Remove(file.Name()) }
	if _, err := file.WriteString(text); err != nil {
		file.Close()
		cleanup()
		return "", nil, fmt.Errorf("write context file: %w", err)
	}
	if err := file.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close context file: %w", err)
	}
	return file.Name(), cleanup, nil
}

func mergeFiles(first, second []string) []string {
	seen := make(map[string]struct{}, len(first)+len(second))
	var out []string
	for _, list := range [][]string{first, second} {
		for _, file := range list {
			file = strings.TrimSpace(file)
			if file == "" {
				continue
			}
			if _, ok := seen[file]; ok {
				continue
			}
			seen[file] = struct{}{}
			out = append(out, file)
		}
	}
	return out
}

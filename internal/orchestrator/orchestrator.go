// Package orchestrator picks an adapter for a task, runs it, validates and
// scores the result, and records the run as a stream of events.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vishkar/internal/adapters"
	"vishkar/internal/events"
	"vishkar/internal/render"
	"vishkar/internal/repo"
	"vishkar/internal/validation"
	"vishkar/internal/version"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Request describes one task to run.
type Request struct {
	Tool       string
	Complexity adapters.Complexity
	Model      string
	Provider   adapters.ModelProvider
	Options    []adapters.Option
	Task       adapters.Task
	// Validate runs ValidateOutput on a successful result.
	Validate bool
	// Expected, when set, is the reference output the result is scored against.
	Expected *string
	// RepoContext prepends a digest of the working directory to the task context.
	RepoContext bool
}

// RunResult captures run output for JSON mode.
type RunResult struct {
	RunID      string                   `json:"run_id"`
	StartedAt  time.Time                `json:"timestamp_start"`
	FinishedAt time.Time                `json:"timestamp_end"`
	Tool       string                   `json:"tool"`
	AutoSelect bool                     `json:"auto_selected"`
	Complexity adapters.Complexity      `json:"complexity"`
	Config     adapters.ToolConfig      `json:"config"`
	Result     adapters.ExecutionResult `json:"result"`
	Valid      *bool                    `json:"valid,omitempty"`
	Cost       float64                  `json:"cost"`
	Status     string                   `json:"status"`
	Events     []events.Event           `json:"events"`
}

// Options configures an Orchestrator.
type Options struct {
	Selection   Selection
	Validator   *validation.Validator
	BaseOptions []adapters.BaseOption
	Limits      repo.Limits
}

// Orchestrator runs tasks through adapters from a registry.
type Orchestrator struct {
	registry *Registry
	renderer render.Renderer
	logger   *zap.Logger
	opts     Options
}

// New constructs an Orchestrator. A nil renderer or logger discards output.
func New(registry *Registry, renderer render.Renderer, logger *zap.Logger, opts Options) *Orchestrator {
	if renderer == nil {
		renderer = render.Discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Selection == nil {
		opts.Selection = DefaultSelection()
	}
	if opts.Validator == nil {
		opts.Validator = validation.New(validation.Options{Logger: logger})
	}
	return &Orchestrator{registry: registry, renderer: renderer, logger: logger, opts: opts}
}

// Run executes req. A tool failure is reported in the result's status; only
// configuration problems are returned as errors.
func (o *Orchestrator) Run(ctx context.Context, req Request) (RunResult, error) {
	started := time.Now()
	result := RunResult{
		RunID:      uuid.NewString(),
		StartedAt:  started,
		Complexity: req.Complexity,
		Status:     StatusFailure,
	}
	emit := func(event events.Event) {
		result.Events = append(result.Events, event)
		o.renderer.Emit(event)
	}
	fail := func(err error) (RunResult, error) {
		o.logger.Error("run failed", zap.String("run_id", result.RunID), zap.Error(err))
		emit(events.New(events.RunError, events.RunErrorPayload{Message: err.Error()}))
		result.FinishedAt = time.Now()
		return result, err
	}

	cfg, err := adapters.ForComplexity(req.Complexity, req.Model, req.Provider, req.Options...)
	if err != nil {
		return fail(err)
	}
	result.Config = cfg

	emit(events.New(events.RunStarted, events.RunStartedPayload{
		Version:    version.Version,
		RunID:      result.RunID,
		WorkingDir: cfg.WorkingDir,
		Complexity: string(req.Complexity),
		StartedAt:  started,
	}))

	name, auto, err := o.registry.Resolve(req.Tool, req.Complexity, o.opts.Selection)
	if err != nil {
		return fail(err)
	}
	tool, err := o.registry.New(name, cfg, Deps{Validator: o.opts.Validator, BaseOptions: o.opts.BaseOptions})
	if err != nil {
		return fail(err)
	}
	result.Tool = tool.Name()
	result.AutoSelect = auto
	emit(events.New(events.ToolSelected, events.ToolSelectedPayload{
		Tool:     tool.Name(),
		Model:    cfg.Model,
		Provider: string(cfg.Provider),
		Auto:     auto,
	}))

	task := req.Task
	if req.RepoContext {
		task.Context = o.withDigest(cfg, task)
	}

	emit(events.New(events.ExecutionStarted, events.ExecutionStartedPayload{
		Tool:           tool.Name(),
		Files:          task.Files,
		TimeoutSeconds: cfg.TimeoutSeconds,
		MaxRetries:     cfg.MaxRetries,
	}))
	res := tool.Execute(ctx, task)
	if req.Expected != nil {
		res = res.WithMatchPercentage(validation.MatchPercentage(res.Output, *req.Expected))
	}
	result.Result = res
	result.Cost = tool.Cost()
	emit(events.New(events.ExecutionFinished, events.ExecutionFinishedPayload{
		Tool:          tool.Name(),
		Success:       res.Success,
		Failure:       string(res.Failure),
		Error:         res.Error,
		TokensUsed:    res.TokensUsed,
		Cost:          result.Cost,
		DurationMs:    int64(res.ExecutionTimeSeconds * 1000),
		FilesModified: res.FilesModified,
	}))

	ok := res.Success
	if req.Validate && res.Success {
		valid := tool.ValidateOutput(ctx, res)
		result.Valid = &valid
		ok = valid
		payload := events.ValidationFinishedPayload{Passed: valid, Checks: o.opts.Validator.Capabilities()}
		if !valid {
			payload.Failed = payload.Checks
		}
		emit(events.New(events.ValidationFinished, payload))
	}

	if ok {
		result.Status = StatusSuccess
	}
	result.FinishedAt = time.Now()
	emit(events.New(events.RunFinished, events.RunFinishedPayload{Status: result.Status, FinishedAt: result.FinishedAt}))
	o.logger.Info("run finished",
		zap.String("run_id", result.RunID),
		zap.String("tool", result.Tool),
		zap.String("status", result.Status),
		zap.Int("tokens", res.TokensUsed))
	return result, nil
}

func (o *Orchestrator) withDigest(cfg adapters.ToolConfig, task adapters.Task) string {
	dir := cfg.WorkingDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return task.Context
		}
		dir = wd
	}
	root, err := repo.FindRoot(dir)
	if err != nil {
		root = dir
	}
	scoped := make([]string, 0, len(task.Files))
	for _, file := range task.Files {
		if !filepath.IsAbs(file) {
			file = filepath.Join(dir, file)
		}
		scoped = append(scoped, file)
	}
	digest, err := repo.BuildDigest(root, scoped, o.opts.Limits)
	if err != nil {
		o.logger.Warn("repository digest unavailable", zap.Error(err))
		return task.Context
	}
	if strings.TrimSpace(task.Context) == "" {
		return digest.Summary()
	}
	return fmt.Sprintf("%s\n%s", digest.Summary(), task.Context)
}

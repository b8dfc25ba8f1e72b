// Package local adapts an OpenAI-compatible model server such as Ollama or
// LM Studio. It returns the model's answer and does not write files.
package local

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vishkar/internal/adapters"
	"vishkar/internal/llm"
	"vishkar/internal/util"
	"vishkar/internal/validation"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const (
	Name           = "local"
	DefaultBaseURL = "http://localhost:11434/v1"
	version        = "1.0.0"

	healthTimeout = 800 * time.Millisecond
	maxFileBytes  = 32 * 1024
	systemPrompt  = "You are a careful senior software engineer. Answer with the complete updated code for each file you change, and nothing else."
)

type Options struct {
	BaseURL string
	APIKey  string
	// Client overrides the chat client built from BaseURL and APIKey.
	Client      llm.Client
	Validator   *validation.Validator
	BaseOptions []adapters.BaseOption
}

type Adapter struct {
	adapters.Base
	baseURL   string
	apiKey    string
	client    llm.Client
	validator *validation.Validator
	probe     *retryablehttp.Client
}

func New(cfg adapters.ToolConfig, opts Options) (*Adapter, error) {
	base, err := adapters.NewBase(Name, cfg, opts.BaseOptions...)
	if err != nil {
		return nil, err
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = cfg.EnvVars["OPENAI_API_KEY"]
	}
	client := opts.Client
	if client == nil {
		client = llm.NewOpenAIClient(apiKey, baseURL, nil)
	}

	probe := retryablehttp.NewClient()
	probe.RetryMax = 0
	probe.HTTPClient.Timeout = healthTimeout
	probe.Logger = nil

	return &Adapter{
		Base:      base,
		baseURL:   baseURL,
		apiKey:    apiKey,
		client:    client,
		validator: opts.Validator,
		probe:     probe,
	}, nil
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
	prompt, err := buildPrompt(task, dir)
	if err != nil {
		return adapters.ExecutionResult{}, err
	}

	resp, err := a.client.Complete(ctx, llm.Request{
		Model:  a.Config().Model,
		System: systemPrompt,
		Prompt: prompt,
	})
	if err != nil {
		return adapters.ExecutionResult{}, classify(err)
	}
	a.Logger().Debug("completion received", zap.Int("tokens", resp.TokensUsed), zap.String("finish_reason", resp.FinishReason))

	tokens := resp.TokensUsed
	if tokens == 0 {
		tokens = (len(systemPrompt) + len(prompt) + len(resp.Content)) / 4
	}
	return adapters.ExecutionResult{Output: resp.Content, TokensUsed: tokens}, nil
}

// classify maps an API failure to its retry class: rate limits, server
// errors and transport failures are transient, other client errors are not.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	status := llm.StatusCode(err)
	switch {
	case status == http.StatusTooManyRequests || status >= 500:
		return adapters.Recoverable(err)
	case status >= 400:
		return adapters.Permanent(err)
	default:
		return adapters.Recoverable(err)
	}
}

func buildPrompt(task adapters.Task, dir string) (string, error) {
	var b strings.Builder
	if task.Context != "" {
		b.WriteString("Repository context:\n")
		b.WriteString(task.Context)
		b.WriteString("\n\n")
	}
	for _, file := range task.Files {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", adapters.Permanent(fmt.Errorf("read %s: %w", file, err))
		}
		content, truncated := util.TruncateBytes(util.RedactSecrets(string(data)), maxFileBytes)
		fmt.Fprintf(&b, "--- %s", file)
		if truncated {
			b.WriteString(" (truncated)")
		}
		b.WriteString(" ---\n")
		b.WriteString(content)
		b.WriteString("\n\n")
	}
	b.WriteString("Task:\n")
	b.WriteString(task.Prompt)
	return b.String(), nil
}

func (a *Adapter) ValidateOutput(ctx context.Context, result adapters.ExecutionResult) bool {
	if !result.Success || strings.TrimSpace(result.Output) == "" {
		return false
	}
	if a.validator == nil {
		return true
	}
	return a.validator.Validate(ctx, a.Config(), result).Passed
}

// HealthCheck lists the server's models; any 2xx answer means reachable.
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/models", nil)
	if err != nil {
		return false
	}
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}
	resp, err := a.probe.Do(req)
	if err != nil {
		a.Logger().Debug("health probe failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

package adapters

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

const (
	DefaultTimeoutSeconds = 60
	DefaultMaxRetries     = 2
)

// ToolConfig holds the settings of one adapter instance. It is built once per
// execution session and not mutated after the adapter takes ownership of it.
type ToolConfig struct {
	Model          string            `json:"model"`
	Provider       ModelProvider     `json:"provider"`
	TimeoutSeconds int               `json:"timeout_seconds"`
	MaxRetries     int               `json:"max_retries"`
	WorkingDir     string            `json:"working_dir,omitempty"`
	EnvVars        map[string]string `json:"env_vars,omitempty"`
}

// Option customizes a ToolConfig during construction.
type Option func(*ToolConfig)

// WithTimeoutSeconds sets an explicit timeout, overriding any complexity default.
func WithTimeoutSeconds(seconds int) Option {
	return func(c *ToolConfig) { c.TimeoutSeconds = seconds }
}

// WithMaxRetries sets the number of additional attempts after a recoverable failure.
func WithMaxRetries(n int) Option {
	return func(c *ToolConfig) { c.MaxRetries = n }
}

// WithWorkingDir sets the directory the tool runs in.
func WithWorkingDir(dir string) Option {
	return func(c *ToolConfig) { c.WorkingDir = dir }
}

// WithEnv adds environment overrides. The map is copied.
func WithEnv(env map[string]string) Option {
	return func(c *ToolConfig) {
		maps.Copy(c.EnvVars, env)
	}
}

// NewToolConfig builds a config directly. The timeout defaults to 60 seconds
// unless WithTimeoutSeconds is supplied.
func NewToolConfig(model string, provider ModelProvider, opts ...Option) (ToolConfig, error) {
	return build(DefaultTimeoutSeconds, model, provider, opts)
}

// ForComplexity builds a config whose timeout comes from the complexity table.
// Options are applied after the lookup.
func ForComplexity(complexity Complexity, model string, provider ModelProvider, opts ...Option) (ToolConfig, error) {
	timeout, err := complexity.TimeoutSeconds()
	if err != nil {
		return ToolConfig{}, err
	}
	return build(timeout, model, provider, opts)
}

func build(timeout int, model string, provider ModelProvider, opts []Option) (ToolConfig, error) {
	cfg := ToolConfig{
		Model:          model,
		Provider:       provider,
		TimeoutSeconds: timeout,
		MaxRetries:     DefaultMaxRetries,
		EnvVars:        map[string]string{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return ToolConfig{}, err
	}
	return cfg, nil
}

// Validate reports configuration errors.
func (c ToolConfig) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: model is required", ErrInvalidConfig)
	}
	if !c.Provider.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, string(c.Provider))
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: timeout_seconds must be positive, got %d", ErrInvalidConfig, c.TimeoutSeconds)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must not be negative, got %d", ErrInvalidConfig, c.MaxRetries)
	}
	for key := range c.EnvVars {
		if key == "" || strings.Contains(key, "=") {
			return fmt.Errorf("%w: invalid env var name %q", ErrInvalidConfig, key)
		}
	}
	return nil
}

// Timeout returns the per-call deadline.
func (c ToolConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Clone returns a copy that shares no mutable state with c.
func (c ToolConfig) Clone() ToolConfig {
	out := c
	out.EnvVars = maps.Clone(c.EnvVars)
	if out.EnvVars == nil {
		out.EnvVars = map[string]string{}
	}
	return out
}

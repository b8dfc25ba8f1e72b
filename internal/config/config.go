package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vishkar/internal/adapters"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	DefaultTool         = "auto"
	DefaultComplexity   = adapters.ComplexityMedium
	DefaultModel        = "claude-3-5-sonnet-latest"
	DefaultProvider     = adapters.ProviderAnthropic
	DefaultLocalBaseURL = "http://localhost:11434/v1"
	DefaultMaxContext   = 80 * 1024
	DefaultMaxFileSize  = 32 * 1024
)

// ContextLimits bounds the repository digest handed to tools.
type ContextLimits struct {
	MaxBytes     int `mapstructure:"max_bytes"`
	MaxFileBytes int `mapstructure:"max_file_bytes"`
}

// Pricing overrides the default per-million-token prices; zero keeps the default.
type Pricing struct {
	InputPerMillion  float64 `mapstructure:"input_per_million"`
	OutputPerMillion float64 `mapstructure:"output_per_million"`
}

// Validation holds the commands run by ValidateOutput, as argv lists.
type Validation struct {
	TestCommand []string `mapstructure:"test_command"`
	LintCommand []string `mapstructure:"lint_command"`
}

// Selection names the tool picked for each complexity when tool is "auto".
type Selection struct {
	Simple  string `mapstructure:"simple"`
	Medium  string `mapstructure:"medium"`
	Complex string `mapstructure:"complex"`
}

// Config holds runtime configuration values.
type Config struct {
	Tool           string            `mapstructure:"tool"`
	Complexity     string            `mapstructure:"complexity"`
	Model          string            `mapstructure:"model"`
	Provider       string            `mapstructure:"provider"`
	MaxRetries     int               `mapstructure:"max_retries"`
	TimeoutSeconds int               `mapstructure:"timeout_seconds"`
	WorkingDir     string            `mapstructure:"working_dir"`
	EnvPairs       []string          `mapstructure:"env"`
	Env            map[string]string `mapstructure:"-"`
	JSON           bool              `mapstructure:"json"`
	Verbose        bool              `mapstructure:"verbose"`
	Validate       bool              `mapstructure:"validate"`
	ExpectFile     string            `mapstructure:"expect_file"`
	RepoContext    bool              `mapstructure:"repo_context"`
	AiderBinary    string            `mapstructure:"-"`
	GooseBinary    string            `mapstructure:"-"`
	LocalBaseURL   string            `mapstructure:"-"`
	LocalAPIKey    string            `mapstructure:"-"`
	Pricing        Pricing           `mapstructure:"pricing"`
	Validation     Validation        `mapstructure:"validation"`
	Selection      Selection         `mapstructure:"selection"`
	Context        ContextLimits     `mapstructure:"context"`

	// timeoutSet records whether timeout_seconds was given explicitly, so the
	// complexity table only applies when it was not.
	timeoutSet bool
}

type rawConfig struct {
	Config `mapstructure:",squash"`
	Aider  struct {
		Binary string `mapstructure:"binary"`
	} `mapstructure:"aider"`
	Goose struct {
		Binary string `mapstructure:"binary"`
	} `mapstructure:"goose"`
	Local struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
	} `mapstructure:"local"`
}

// flagKeys maps viper keys to the cobra flags that override them.
var flagKeys = map[string]string{
	"tool":            "tool",
	"complexity":      "complexity",
	"model":           "model",
	"provider":        "provider",
	"max_retries":     "max-retries",
	"timeout_seconds": "timeout",
	"working_dir":     "working-dir",
	"json":            "json",
	"verbose":         "verbose",
	"expect_file":     "expect",
	"repo_context":    "repo-context",
}

// Load resolves configuration from defaults, config files, env, and flags.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VISHKAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("tool", DefaultTool)
	v.SetDefault("complexity", string(DefaultComplexity))
	v.SetDefault("model", DefaultModel)
	v.SetDefault("provider", string(DefaultProvider))
	v.SetDefault("max_retries", adapters.DefaultMaxRetries)
	v.SetDefault("timeout_seconds", 0)
	v.SetDefault("working_dir", "")
	v.SetDefault("env", []string{})
	v.SetDefault("json", false)
	v.SetDefault("verbose", false)
	v.SetDefault("validate", true)
	v.SetDefault("expect_file", "")
	v.SetDefault("repo_context", false)
	v.SetDefault("aider.binary", "aider")
	v.SetDefault("goose.binary", "goose")
	v.SetDefault("local.base_url", DefaultLocalBaseURL)
	v.SetDefault("local.api_key", "")
	v.SetDefault("pricing.input_per_million", 0.0)
	v.SetDefault("pricing.output_per_million", 0.0)
	v.SetDefault("selection.simple", "aider")
	v.SetDefault("selection.medium", "aider")
	v.SetDefault("selection.complex", "goose")
	v.SetDefault("context.max_bytes", DefaultMaxContext)
	v.SetDefault("context.max_file_bytes", DefaultMaxFileSize)

	if cmd != nil {
		for key, flag := range flagKeys {
			if f := cmd.Flags().Lookup(flag); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
		if f := cmd.Flags().Lookup("no-validate"); f != nil && f.Changed {
			v.Set("validate", false)
		}
	}

	if err := loadConfigFile(v); err != nil {
		return Config{}, err
	}

	var raw rawConfig
	decoder, _ := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           &raw,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(" "),
	})
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg := raw.Config
	cfg.AiderBinary = raw.Aider.Binary
	cfg.GooseBinary = raw.Goose.Binary
	cfg.LocalBaseURL = raw.Local.BaseURL
	cfg.LocalAPIKey = raw.Local.APIKey
	cfg.timeoutSet = cfg.TimeoutSeconds != 0

	// Env is a list of KEY=VALUE pairs because viper lowercases map keys.
	pairs := cfg.EnvPairs
	if cmd != nil {
		if f := cmd.Flags().Lookup("env"); f != nil && f.Changed {
			flagPairs, err := cmd.Flags().GetStringArray("env")
			if err != nil {
				return Config{}, err
			}
			pairs = append(append([]string(nil), pairs...), flagPairs...)
		}
	}
	env, err := ParseEnvPairs(pairs)
	if err != nil {
		return Config{}, err
	}
	cfg.Env = env

	if cfg.Tool == "" {
		cfg.Tool = DefaultTool
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.LocalBaseURL == "" {
		cfg.LocalBaseURL = DefaultLocalBaseURL
	}
	if cfg.Context.MaxBytes <= 0 {
		cfg.Context.MaxBytes = DefaultMaxContext
	}
	if cfg.Context.MaxFileBytes <= 0 {
		cfg.Context.MaxFileBytes = DefaultMaxFileSize
	}
	return cfg, nil
}

// ParseEnvPairs turns KEY=VALUE strings into a map.
func ParseEnvPairs(pairs []string) (map[string]string, error) {
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid env pair %q: want KEY=VALUE", pair)
		}
		env[strings.TrimSpace(key)] = value
	}
	return env, nil
}

// ComplexityLevel parses the configured complexity.
func (c Config) ComplexityLevel() (adapters.Complexity, error) {
	return adapters.ParseComplexity(c.Complexity)
}

// ModelProvider parses the configured provider.
func (c Config) ModelProvider() (adapters.ModelProvider, error) {
	return adapters.ParseModelProvider(c.Provider)
}

// ToolOptions returns the adapter options that override the complexity defaults.
// The timeout is only overridden when it was configured explicitly.
func (c Config) ToolOptions() []adapters.Option {
	opts := []adapters.Option{
		adapters.WithMaxRetries(c.MaxRetries),
		adapters.WithWorkingDir(c.WorkingDir),
		adapters.WithEnv(c.Env),
	}
	if c.timeoutSet {
		opts = append(opts, adapters.WithTimeoutSeconds(c.TimeoutSeconds))
	}
	return opts
}

// ToolConfig resolves the adapter configuration for the configured complexity.
func (c Config) ToolConfig() (adapters.ToolConfig, error) {
	complexity, err := c.ComplexityLevel()
	if err != nil {
		return adapters.ToolConfig{}, err
	}
	provider, err := c.ModelProvider()
	if err != nil {
		return adapters.ToolConfig{}, err
	}
	return adapters.ForComplexity(complexity, c.Model, provider, c.ToolOptions()...)
}

// PricingModel returns the pricing used for cost estimates.
func (c Config) PricingModel() adapters.Pricing {
	if c.Pricing.InputPerMillion <= 0 && c.Pricing.OutputPerMillion <= 0 {
		return adapters.DefaultPricing
	}
	return adapters.PricingPerMillion(c.Pricing.InputPerMillion, c.Pricing.OutputPerMillion)
}

// SelectionMap returns the auto-selection table keyed by complexity.
func (c Config) SelectionMap() map[adapters.Complexity]string {
	return map[adapters.Complexity]string{
		adapters.ComplexitySimple:  c.Selection.Simple,
		adapters.ComplexityMedium:  c.Selection.Medium,
		adapters.ComplexityComplex: c.Selection.Complex,
	}
}

func loadConfigFile(v *viper.Viper) error {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	base := filepath.Join(configDir, "vishkar")
	for _, name := range []string{"config.yaml", "config.yml", "config.json", "config.toml"} {
		path := filepath.Join(base, name)
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("read config %s: %w", path, err)
			}
			return nil
		}
	}
	return nil
}

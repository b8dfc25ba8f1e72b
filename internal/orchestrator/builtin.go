package orchestrator

import (
	"context"

	"vishkar/internal/adapters"
	"vishkar/internal/adapters/aider"
	"vishkar/internal/adapters/goose"
	"vishkar/internal/adapters/local"
)

// BuiltinOptions locates the external tools.
type BuiltinOptions struct {
	AiderBinary  string
	GooseBinary  string
	LocalBaseURL string
	LocalAPIKey  string
}

// Builtin registers the aider, goose and local model adapters plus the mock.
func Builtin(opts BuiltinOptions) *Registry {
	reg := NewRegistry()
	reg.Register(aider.Name, func(cfg adapters.ToolConfig, deps Deps) (adapters.ToolAdapter, error) {
		return aider.New(cfg, aider.Options{Binary: opts.AiderBinary, Validator: deps.Validator, BaseOptions: deps.BaseOptions})
	})
	reg.Register(goose.Name, func(cfg adapters.ToolConfig, deps Deps) (adapters.ToolAdapter, error) {
		return goose.New(cfg, goose.Options{Binary: opts.GooseBinary, Validator: deps.Validator, BaseOptions: deps.BaseOptions})
	})
	reg.Register(local.Name, func(cfg adapters.ToolConfig, deps Deps) (adapters.ToolAdapter, error) {
		return local.New(cfg, local.Options{BaseURL: opts.LocalBaseURL, APIKey: opts.LocalAPIKey, Validator: deps.Validator, BaseOptions: deps.BaseOptions})
	})
	reg.Register("mock", mockFactory(adapters.MockOptions{}))
	return reg
}

// Mock registers the mock adapter under every builtin name, so the CLI can
// run end to end without any external tool installed.
func Mock(opts adapters.MockOptions) *Registry {
	reg := NewRegistry()
	for _, name := range []string{aider.Name, goose.Name, local.Name, "mock"} {
		reg.Register(name, mockFactory(opts))
	}
	return reg
}

func mockFactory(opts adapters.MockOptions) Factory {
	return func(cfg adapters.ToolConfig, deps Deps) (adapters.ToolAdapter, error) {
		o := opts
		o.BaseOptions = append(append([]adapters.BaseOption(nil), deps.BaseOptions...), opts.BaseOptions...)
		if o.Validate == nil && deps.Validator != nil {
			validator := deps.Validator
			o.Validate = func(ctx context.Context, cfg adapters.ToolConfig, result adapters.ExecutionResult) bool {
				return validator.Validate(ctx, cfg, result).Passed
			}
		}
		return adapters.NewMockAdapter(cfg, o)
	}
}

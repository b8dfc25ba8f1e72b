package orchestrator

import (
	"errors"
	"fmt"
	"sort"

	"vishkar/internal/adapters"
	"vishkar/internal/validation"
)

// ToolAuto asks the orchestrator to pick a tool from the task complexity.
const ToolAuto = "auto"

// ErrUnknownTool is returned when no factory is registered under a name.
var ErrUnknownTool = errors.New("unknown tool")

// Deps are the shared collaborators handed to every factory.
type Deps struct {
	Validator   *validation.Validator
	BaseOptions []adapters.BaseOption
}

// Factory constructs an adapter for one execution session.
type Factory func(cfg adapters.ToolConfig, deps Deps) (adapters.ToolAdapter, error)

// Registry stores adapter factories by tool name.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// Names returns sorted tool names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New constructs the adapter registered under name.
func (r *Registry) New(name string, cfg adapters.ToolConfig, deps Deps) (adapters.ToolAdapter, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownTool, name, r.Names())
	}
	return factory(cfg, deps)
}

// Selection maps each complexity to the tool used when the caller asks for "auto".
type Selection map[adapters.Complexity]string

// DefaultSelection sends simple and medium tasks to aider and complex ones to goose.
func DefaultSelection() Selection {
	return Selection{
		adapters.ComplexitySimple:  "aider",
		adapters.ComplexityMedium:  "aider",
		adapters.ComplexityComplex: "goose",
	}
}

// Resolve returns the concrete tool for the request and whether it was auto-selected.
func (r *Registry) Resolve(tool string, complexity adapters.Complexity, sel Selection) (string, bool, error) {
	if tool != "" && tool != ToolAuto {
		if !r.Has(tool) {
			return "", false, fmt.Errorf("%w: %q (available: %v)", ErrUnknownTool, tool, r.Names())
		}
		return tool, false, nil
	}
	if _, err := complexity.TimeoutSeconds(); err != nil {
		return "", false, err
	}
	name := sel[complexity]
	if name == "" {
		name = DefaultSelection()[complexity]
	}
	if !r.Has(name) {
		return "", true, fmt.Errorf("%w: %q selected for %s tasks is not registered", ErrUnknownTool, name, complexity)
	}
	return name, true, nil
}

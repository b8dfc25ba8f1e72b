package adapters

import (
	"fmt"
	"strings"
)

// Complexity is a coarse task-size classification used to size the timeout budget.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"  // single file, straightforward change
	ComplexityMedium  Complexity = "medium"  // multi-file, logic changes
	ComplexityComplex Complexity = "complex" // refactoring, architecture changes
)

// Complexities lists every declared complexity level.
func Complexities() []Complexity {
	return []Complexity{ComplexitySimple, ComplexityMedium, ComplexityComplex}
}

// TimeoutSeconds returns the default timeout for the complexity level.
func (c Complexity) TimeoutSeconds() (int, error) {
	switch c {
	case ComplexitySimple:
		return 30, nil
	case ComplexityMedium:
		return 60, nil
	case ComplexityComplex:
		return 120, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownComplexity, string(c))
	}
}

// ParseComplexity converts a user-supplied value into a Complexity.
func ParseComplexity(value string) (Complexity, error) {
	c := Complexity(strings.ToLower(strings.TrimSpace(value)))
	if _, err := c.TimeoutSeconds(); err != nil {
		return "", err
	}
	return c, nil
}

// ModelProvider identifies which backend a model identifier belongs to.
type ModelProvider string

const (
	ProviderAnthropic ModelProvider = "anthropic"
	ProviderOpenAI    ModelProvider = "openai"
	ProviderLocal     ModelProvider = "local" // LM Studio, Ollama
)

func (p ModelProvider) valid() bool {
	switch p {
	case ProviderAnthropic, ProviderOpenAI, ProviderLocal:
		return true
	}
	return false
}

// ParseModelProvider converts a user-supplied value into a ModelProvider.
func ParseModelProvider(value string) (ModelProvider, error) {
	p := ModelProvider(strings.ToLower(strings.TrimSpace(value)))
	if !p.valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, value)
	}
	return p, nil
}

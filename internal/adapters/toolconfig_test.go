package adapters

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplexityTimeouts(t *testing.T) {
	cases := map[Complexity]int{
		ComplexitySimple:  30,
		ComplexityMedium:  60,
		ComplexityComplex: 120,
	}
	for complexity, want := range cases {
		cfg, err := ForComplexity(complexity, "gpt-4o-mini", ProviderOpenAI)
		require.NoError(t, err, complexity)
		assert.Equal(t, want, cfg.TimeoutSeconds, complexity)
		assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
		assert.Empty(t, cfg.WorkingDir)
		assert.Empty(t, cfg.EnvVars)
	}
}

func TestUnknownComplexity(t *testing.T) {
	_, err := ForComplexity(Complexity("extreme"), "m", ProviderLocal)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownComplexity))
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = ParseComplexity("HARD")
	assert.ErrorIs(t, err, ErrUnknownComplexity)

	c, err := ParseComplexity(" Medium ")
	require.NoError(t, err)
	assert.Equal(t, ComplexityMedium, c)
}

func TestExplicitOverridesWin(t *testing.T) {
	cfg, err := ForComplexity(ComplexitySimple, "claude-3-5-sonnet", ProviderAnthropic,
		WithTimeoutSeconds(45),
		WithMaxRetries(0),
		WithWorkingDir("/tmp"),
		WithEnv(map[string]string{"A": "1"}),
	)
	require.NoError(t, err)
	assert.Equal(t, ToolConfig{
		Model:          "claude-3-5-sonnet",
		Provider:       ProviderAnthropic,
		TimeoutSeconds: 45,
		MaxRetries:     0,
		WorkingDir:     "/tmp",
		EnvVars:        map[string]string{"A": "1"},
	}, cfg)

	direct, err := NewToolConfig("llama3", ProviderLocal)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeoutSeconds, direct.TimeoutSeconds)
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		opts []Option
		prov ModelProvider
		mdl  string
	}{
		{name: "empty model", mdl: "", prov: ProviderLocal},
		{name: "bad provider", mdl: "m", prov: ModelProvider("azure")},
		{name: "zero timeout", mdl: "m", prov: ProviderLocal, opts: []Option{WithTimeoutSeconds(0)}},
		{name: "negative retries", mdl: "m", prov: ProviderLocal, opts: []Option{WithMaxRetries(-1)}},
		{name: "bad env key", mdl: "m", prov: ProviderLocal, opts: []Option{WithEnv(map[string]string{"A=B": "x"})}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewToolConfig(tc.mdl, tc.prov, tc.opts...)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestEnvVarsAreNotShared(t *testing.T) {
	a, err := ForComplexity(ComplexitySimple, "m", ProviderLocal)
	require.NoError(t, err)
	b, err := ForComplexity(ComplexitySimple, "m", ProviderLocal)
	require.NoError(t, err)

	a.EnvVars["ONLY_A"] = "1"
	assert.NotContains(t, b.EnvVars, "ONLY_A")

	src := map[string]string{"K": "v"}
	c, err := NewToolConfig("m", ProviderLocal, WithEnv(src))
	require.NoError(t, err)
	src["K"] = "changed"
	assert.Equal(t, "v", c.EnvVars["K"])

	clone := c.Clone()
	clone.EnvVars["K"] = "clone"
	assert.Equal(t, "v", c.EnvVars["K"])
}

func TestParseModelProvider(t *testing.T) {
	p, err := ParseModelProvider("OpenAI")
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, p)

	_, err = ParseModelProvider("bedrock")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

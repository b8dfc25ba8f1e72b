// Package validation verifies output already produced by an adapter: syntax
// of modified files, the project's test suite, and lint rules. It also scores
// output against an expected reference.
package validation

import (
	"context"
	"strings"

	"vishkar/internal/adapters"
	"vishkar/internal/util"

	"go.uber.org/zap"
)

const (
	CheckSyntax = "syntax"
	CheckTests  = "tests"
	CheckLint   = "lint"
)

// Options configures which checks a Validator can run. Commands are argv
// lists run without a shell; an empty command disables the check.
type Options struct {
	TestCommand []string
	LintCommand []string
	Logger      *zap.Logger
}

// CheckResult is the outcome of one check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Report lists the checks that ran. Passed is true when every one of them passed.
type Report struct {
	Checks []CheckResult `json:"checks"`
	Passed bool          `json:"passed"`
}

// Validator runs the checks it is capable of.
type Validator struct {
	test   []string
	lint   []string
	logger *zap.Logger
}

// New constructs a Validator.
func New(opts Options) *Validator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		test:   append([]string(nil), opts.TestCommand...),
		lint:   append([]string(nil), opts.LintCommand...),
		logger: logger,
	}
}

// Capabilities lists the checks that can run for a result modifying files.
func (v *Validator) Capabilities() []string {
	caps := []string{CheckSyntax}
	if len(v.test) > 0 {
		caps = append(caps, CheckTests)
	}
	if len(v.lint) > 0 {
		caps = append(caps, CheckLint)
	}
	return caps
}

// Validate inspects result without re-running the task. A failed result never validates.
func (v *Validator) Validate(ctx context.Context, cfg adapters.ToolConfig, result adapters.ExecutionResult) Report {
	if !result.Success {
		return Report{Checks: []CheckResult{{Name: "execution", Passed: false, Detail: "execution did not succeed"}}}
	}

	workDir := cfg.WorkingDir
	report := Report{Passed: true}
	add := func(check CheckResult) {
		report.Checks = append(report.Checks, check)
		if !check.Passed {
			report.Passed = false
		}
		v.logger.Debug("validation check", zap.String("check", check.Name), zap.Bool("passed", check.Passed))
	}

	if checked, problems := ParseFiles(resolveDir(workDir), result.FilesModified); checked > 0 {
		add(CheckResult{Name: CheckSyntax, Passed: len(problems) == 0, Detail: strings.Join(problems, "\n")})
	}
	if len(v.test) > 0 {
		add(v.runCommand(ctx, CheckTests, v.test, cfg))
	}
	if len(v.lint) > 0 {
		add(v.runCommand(ctx, CheckLint, v.lint, cfg))
	}
	return report
}

func (v *Validator) runCommand(ctx context.Context, name string, argv []string, cfg adapters.ToolConfig) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	res, err := adapters.RunProcess(ctx, adapters.Invocation{
		Binary: argv[0],
		Args:   argv[1:],
		Dir:    cfg.WorkingDir,
		Env:    cfg.EnvVars,
	})
	if err != nil {
		detail := strings.TrimSpace(res.Stdout + "\n" + res.Stderr)
		if detail == "" {
			detail = err.Error()
		}
		detail = util.Preview(util.RedactSecrets(detail), 40, 4000)
		return CheckResult{Name: name, Passed: false, Detail: detail}
	}
	return CheckResult{Name: name, Passed: true}
}

func resolveDir(dir string) string {
	if strings.TrimSpace(dir) == "" {
		return "."
	}
	return dir
}

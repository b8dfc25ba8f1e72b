package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"vishkar/internal/adapters"
	"vishkar/internal/config"
	"vishkar/internal/orchestrator"
	"vishkar/internal/render"
	"vishkar/internal/repo"
	"vishkar/internal/validation"
	"vishkar/internal/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// errRunFailed signals a tool failure that has already been reported.
var errRunFailed = errors.New("run failed")

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if errors.Is(err, errRunFailed) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "vishkar",
		Short:         "vishkar - run coding assistants behind one contract",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newExecuteCmd(), newHealthCmd())
	return cmd
}

func newExecuteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute <prompt> [files...]",
		Short: "Execute a task with a coding assistant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			complexity, err := cfg.ComplexityLevel()
			if err != nil {
				return err
			}
			provider, err := cfg.ModelProvider()
			if err != nil {
				return err
			}
			var expected *string
			if cfg.ExpectFile != "" {
				data, err := os.ReadFile(cfg.ExpectFile)
				if err != nil {
					return fmt.Errorf("read expected output: %w", err)
				}
				text := string(data)
				expected = &text
			}

			logger := buildLogger(cfg.Verbose)
			defer func() { _ = logger.Sync() }()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			var renderer render.Renderer = render.Discard{}
			if !cfg.JSON {
				renderer = render.NewStdoutRenderer(os.Stdout, cfg.Verbose, false)
			}
			orch := newOrchestrator(cfg, renderer, logger)

			result, runErr := orch.Run(ctx, orchestrator.Request{
				Tool:        cfg.Tool,
				Complexity:  complexity,
				Model:       cfg.Model,
				Provider:    provider,
				Options:     cfg.ToolOptions(),
				Task:        adapters.Task{Prompt: args[0], Files: args[1:]},
				Validate:    cfg.Validate,
				Expected:    expected,
				RepoContext: cfg.RepoContext,
			})
			_ = renderer.Close()
			if runErr != nil {
				return runErr
			}

			if cfg.JSON {
				payload, _ := json.MarshalIndent(result, "", "  ")
				fmt.Fprintln(os.Stdout, string(payload))
			} else {
				printSummary(os.Stdout, result)
			}
			if result.Status != orchestrator.StatusSuccess {
				return errRunFailed
			}
			return nil
		},
	}

	cmd.Flags().String("tool", config.DefaultTool, "Tool to use: aider, goose, local, mock or auto")
	cmd.Flags().String("complexity", string(config.DefaultComplexity), "Task complexity: simple, medium or complex")
	cmd.Flags().String("model", config.DefaultModel, "Model name")
	cmd.Flags().String("provider", string(config.DefaultProvider), "Model provider: anthropic, openai or local")
	cmd.Flags().Int("max-retries", adapters.DefaultMaxRetries, "Additional attempts after a recoverable failure")
	cmd.Flags().Int("timeout", 0, "Timeout in seconds (default: from complexity)")
	cmd.Flags().String("working-dir", "", "Directory the tool runs in")
	cmd.Flags().StringArray("env", nil, "Environment override KEY=VALUE (repeatable)")
	cmd.Flags().Bool("json", false, "Output JSON only")
	cmd.Flags().Bool("verbose", false, "Enable verbose logging")
	cmd.Flags().Bool("no-validate", false, "Skip output validation")
	cmd.Flags().String("expect", "", "File with expected output to score the result against")
	cmd.Flags().Bool("repo-context", false, "Prime the tool with a repository digest")
	return cmd
}

func newHealthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check tool availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			toolCfg, err := cfg.ToolConfig()
			if err != nil {
				return err
			}
			logger := buildLogger(cfg.Verbose)
			defer func() { _ = logger.Sync() }()

			var renderer render.Renderer = render.Discard{}
			if !cfg.JSON {
				fmt.Fprintln(os.Stdout, "Health check:")
				renderer = render.NewStdoutRenderer(os.Stdout, cfg.Verbose, false)
			}
			orch := newOrchestrator(cfg, renderer, logger)
			results := orch.HealthAll(cmd.Context(), []string{"aider", "goose", "local"}, toolCfg)
			if cfg.JSON {
				payload, _ := json.MarshalIndent(results, "", "  ")
				fmt.Fprintln(os.Stdout, string(payload))
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Output JSON only")
	cmd.Flags().Bool("verbose", false, "Enable verbose logging")
	return cmd
}

func newOrchestrator(cfg config.Config, renderer render.Renderer, logger *zap.Logger) *orchestrator.Orchestrator {
	var registry *orchestrator.Registry
	if os.Getenv("VISHKAR_MOCK_TOOLS") == "1" {
		registry = orchestrator.Mock(adapters.MockOptions{})
	} else {
		registry = orchestrator.Builtin(orchestrator.BuiltinOptions{
			AiderBinary:  cfg.AiderBinary,
			GooseBinary:  cfg.GooseBinary,
			LocalBaseURL: cfg.LocalBaseURL,
			LocalAPIKey:  cfg.LocalAPIKey,
		})
	}
	validator := validation.New(validation.Options{
		TestCommand: cfg.Validation.TestCommand,
		LintCommand: cfg.Validation.LintCommand,
		Logger:      logger,
	})
	return orchestrator.New(registry, renderer, logger, orchestrator.Options{
		Selection: cfg.SelectionMap(),
		Validator: validator,
		BaseOptions: []adapters.BaseOption{
			adapters.WithLogger(logger),
			adapters.WithPricing(cfg.PricingModel()),
		},
		Limits: repo.Limits{ContextMaxBytes: cfg.Context.MaxBytes, MaxFileBytes: cfg.Context.MaxFileBytes},
	})
}

func printSummary(w io.Writer, result orchestrator.RunResult) {
	res := result.Result
	if res.Success {
		fmt.Fprintln(w, "✓ Success")
	} else {
		fmt.Fprintln(w, "✗ Failed")
	}
	if out := strings.TrimSpace(res.Output); out != "" {
		fmt.Fprintln(w, out)
	}
	if res.MatchPercentage != nil {
		fmt.Fprintf(w, "match: %.1f%%\n", *res.MatchPercentage)
	}
	if result.Valid != nil && !*result.Valid {
		fmt.Fprintln(w, "validation failed")
	}
}

func buildLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}

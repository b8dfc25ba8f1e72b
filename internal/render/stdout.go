package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"vishkar/internal/events"
)

// StdoutRenderer streams events to a plain text writer.
type StdoutRenderer struct {
	w       io.Writer
	mu      sync.Mutex
	verbose bool
	quiet   bool
}

// NewStdoutRenderer creates a renderer for plain text streaming.
func NewStdoutRenderer(w io.Writer, verbose bool, quiet bool) *StdoutRenderer {
	return &StdoutRenderer{w: w, verbose: verbose, quiet: quiet}
}

func (r *StdoutRenderer) Emit(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Type {
	case events.RunStarted:
		if payload, ok := event.Payload.(events.RunStartedPayload); ok {
			if r.quiet || !r.verbose {
				return
			}
			fmt.Fprintf(r.w, "vishkar v%s | dir: %s | complexity: %s | run: %s\n", payload.Version, payload.WorkingDir, payload.Complexity, payload.RunID)
		}
	case events.ToolSelected:
		if payload, ok := event.Payload.(events.ToolSelectedPayload); ok {
			if r.quiet {
				return
			}
			how := ""
			if payload.Auto {
				how = " (auto)"
			}
			fmt.Fprintf(r.w, "tool: %s%s | model: %s | provider: %s\n", payload.Tool, how, payload.Model, payload.Provider)
		}
	case events.ExecutionStarted:
		if payload, ok := event.Payload.(events.ExecutionStartedPayload); ok {
			if r.quiet || !r.verbose {
				return
			}
			fmt.Fprintf(r.w, "executing (timeout %ds, retries %d)\n", payload.TimeoutSeconds, payload.MaxRetries)
			if len(payload.Files) > 0 {
				fmt.Fprintf(r.w, "files: %s\n", strings.Join(payload.Files, ", "))
			}
		}
	case events.ExecutionFinished:
		if payload, ok := event.Payload.(events.ExecutionFinishedPayload); ok {
			status := "ok"
			if !payload.Success {
				status = "failed"
				if payload.Failure != "" {
					status += " (" + payload.Failure + ")"
				}
			}
			fmt.Fprintf(r.w, "%s: %s (%dms, %d tokens, $%.6f)\n", payload.Tool, status, payload.DurationMs, payload.TokensUsed, payload.Cost)
			if payload.Error != "" {
				fmt.Fprintf(r.w, "error: %s\n", payload.Error)
			}
			if !r.quiet && len(payload.FilesModified) > 0 {
				fmt.Fprintln(r.w, "modified:")
				for _, file := range payload.FilesModified {
					fmt.Fprintf(r.w, "  %s\n", file)
				}
			}
		}
	case events.ValidationFinished:
		if payload, ok := event.Payload.(events.ValidationFinishedPayload); ok {
			if r.quiet {
				return
			}
			if payload.Passed {
				fmt.Fprintf(r.w, "validation: passed (%s)\n", joinOrNone(payload.Checks))
				return
			}
			fmt.Fprintf(r.w, "validation: failed (%s)\n", joinOrNone(payload.Failed))
		}
	case events.HealthChecked:
		if payload, ok := event.Payload.(events.HealthCheckedPayload); ok {
			status := "ok"
			if !payload.Healthy {
				status = "unavailable"
			}
			fmt.Fprintf(r.w, "%-8s %s (%dms)\n", payload.Tool, status, payload.DurationMs)
		}
	case events.RunError:
		if payload, ok := event.Payload.(events.RunErrorPayload); ok {
			fmt.Fprintf(r.w, "\nError: %s\n", payload.Message)
		}
	}
}

func (r *StdoutRenderer) Close() error {
	return nil
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "no checks"
	}
	return strings.Join(items, ", ")
}

package orchestrator

import (
	"context"
	"time"

	"vishkar/internal/adapters"
	"vishkar/internal/events"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Health is the probe outcome of one tool.
type Health struct {
	Tool     string        `json:"tool"`
	Healthy  bool          `json:"healthy"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// HealthAll probes every named tool concurrently and returns results in the
// order of names. A tool that cannot be constructed is reported unhealthy.
func (o *Orchestrator) HealthAll(ctx context.Context, names []string, cfg adapters.ToolConfig) []Health {
	results := make([]Health, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			start := time.Now()
			h := Health{Tool: name}
			tool, err := o.registry.New(name, cfg, Deps{Validator: o.opts.Validator, BaseOptions: o.opts.BaseOptions})
			if err != nil {
				h.Error = err.Error()
			} else {
				h.Healthy = tool.HealthCheck(gctx)
			}
			h.Duration = time.Since(start)
			results[i] = h
			o.logger.Debug("health probe", zap.String("tool", name), zap.Bool("healthy", h.Healthy), zap.Duration("duration", h.Duration))
			return nil
		})
	}
	_ = g.Wait()

	for _, h := range results {
		o.renderer.Emit(events.New(events.HealthChecked, events.HealthCheckedPayload{
			Tool:       h.Tool,
			Healthy:    h.Healthy,
			DurationMs: h.Duration.Milliseconds(),
		}))
	}
	return results
}

package render

import (
	"context"
	"time"

	"github.com/user/threadshot/pkg/enginepool"
	"github.com/user/threadshot/pkg/guard"
	"github.com/user/threadshot/pkg/pipeline"
	"github.com/user/threadshot/pkg/ports"
)

// Stage renders documents on a shared engine under a guard.
type Stage struct {
	provider enginepool.Provider
	guard    *guard.Guard
	executor *Executor
	defaults pipeline.RenderConfig
	logger   ports.Logger
}

// NewStage creates a render stage. defaults is the process-wide config that
// each input's overrides are merged onto.
func NewStage(
	provider enginepool.Provider,
	g *guard.Guard,
	executor *Executor,
	defaults pipeline.RenderConfig,
	logger ports.Logger,
) *Stage {
	return &Stage{
		provider: provider,
		guard:    g,
		executor: executor,
		defaults: defaults,
		logger:   logger.WithComponent("render"),
	}
}

// Execute renders input.Markup. Engine crashes are retried on a fresh
// engine; timeouts and invalid input are returned immediately.
func (s *Stage) Execute(ctx context.Context, input pipeline.RenderInput) (pipeline.RenderResult, error) {
	cfg := s.defaults.Merge(input.Config)
	if err := cfg.Validate(); err != nil {
		return pipeline.RenderResult{}, err
	}

	start := time.Now()
	result, err := guard.Do(ctx, s.guard, func(ctx context.Context) (pipeline.RenderResult, error) {
		var out pipeline.RenderResult
		err := s.provider.Use(ctx, func(ctx context.Context, engine ports.Engine) error {
			r, err := s.executor.Render(ctx, engine, input.Markup, cfg)
			out = r
			return err
		})
		return out, err
	})
	if err != nil {
		return pipeline.RenderResult{}, err
	}

	s.logger.Debug("Render completed in %d ms", time.Since(start).Milliseconds())
	return result, nil
}

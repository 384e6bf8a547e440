// Package threadshot renders HTML threads to PNG images on a shared
// headless browser.
package threadshot

import (
	"context"
	"image"
	"time"

	"github.com/user/threadshot/pkg/adapters/chromebrowser"
	"github.com/user/threadshot/pkg/adapters/ggrenderer"
	"github.com/user/threadshot/pkg/adapters/httpfetcher"
	"github.com/user/threadshot/pkg/adapters/logger"
	"github.com/user/threadshot/pkg/adapters/nullsink"
	"github.com/user/threadshot/pkg/adapters/osfilesystem"
	"github.com/user/threadshot/pkg/enginepool"
	"github.com/user/threadshot/pkg/guard"
	"github.com/user/threadshot/pkg/orchestrator"
	"github.com/user/threadshot/pkg/pipeline"
	"github.com/user/threadshot/pkg/ports"
	"github.com/user/threadshot/pkg/stages/markup"
	"github.com/user/threadshot/pkg/stages/prefetch"
	"github.com/user/threadshot/pkg/stages/render"
	"github.com/user/threadshot/pkg/stages/segment"
)

// Options configures a Service. Nil adapters are replaced by the
// production implementations.
type Options struct {
	Browser           ports.BrowserOptions
	Lifetime          time.Duration // engine lifetime, enginepool.DefaultLifetime when zero
	ProactiveTeardown bool
	Oneshot           bool // launch a browser per render instead of sharing one

	Guard    guard.Config
	Defaults pipeline.RenderConfig // merged under every request's overrides

	Prefetch     prefetch.Options
	FetchTimeout time.Duration

	OutputScale float64 // resize chunks by this factor when set

	Source     ports.PostSource
	Launcher   ports.Launcher
	Fetcher    ports.MediaFetcher
	Renderer   ports.Renderer
	FileSystem ports.FileSystem
	Sink       ports.DebugSink
	Logger     ports.Logger
}

// DefaultOptions returns headless sharing with the default guard.
func DefaultOptions() Options {
	return Options{
		Browser:  ports.BrowserOptions{Headless: true},
		Lifetime: enginepool.DefaultLifetime,
		Guard:    guard.DefaultConfig(),
		Defaults: desktopDefaults(),
	}
}

// Service is the long-lived entry point shared by the CLI and server.
type Service struct {
	provider     enginepool.Provider
	pool         *enginepool.Pool // nil in oneshot mode
	renderStage  *render.Stage
	segmentStage *segment.Stage
	orch         *orchestrator.Orchestrator
	logger       ports.Logger
}

// New wires the adapters and stages. No browser starts until the first render.
func New(opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = ggrenderer.New()
	}
	launcher := opts.Launcher
	if launcher == nil {
		launcher = chromebrowser.NewLauncher(log)
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = httpfetcher.New(httpfetcher.Options{Timeout: opts.FetchTimeout})
	}
	fs := opts.FileSystem
	if fs == nil {
		fs = osfilesystem.New()
	}
	sink := opts.Sink
	if sink == nil {
		sink = nullsink.New()
	}

	s := &Service{logger: log}
	if opts.Oneshot {
		s.provider = enginepool.NewOneshot(launcher, opts.Browser, log)
	} else {
		s.pool = enginepool.New(launcher, enginepool.Options{
			Lifetime:          opts.Lifetime,
			Browser:           opts.Browser,
			ProactiveTeardown: opts.ProactiveTeardown,
		}, log)
		s.provider = s.pool
	}

	g := guard.New(opts.Guard, log)
	s.renderStage = render.NewStage(s.provider, g, render.NewExecutor(renderer, log), opts.Defaults, log)
	s.segmentStage = segment.NewStage(renderer, log, opts.OutputScale)
	s.orch = orchestrator.New(
		opts.Source,
		prefetch.NewStage(fetcher, log, opts.Prefetch),
		markup.NewStage(log),
		s.renderStage,
		s.segmentStage,
		renderer,
		fs,
		sink,
		log,
	)
	return s
}

// Render rasterizes markup with cfg merged over the service defaults.
func (s *Service) Render(ctx context.Context, markup string, cfg pipeline.RenderConfig) (pipeline.RenderResult, error) {
	return s.renderStage.Execute(ctx, pipeline.RenderInput{Markup: markup, Config: cfg})
}

// Segment cuts a render into item-aligned chunks.
func (s *Service) Segment(ctx context.Context, result pipeline.RenderResult, policy pipeline.SplitPolicy) ([]image.Image, error) {
	out, err := s.segmentStage.Execute(ctx, pipeline.SegmentInput{Result: result, Policy: policy})
	if err != nil {
		return nil, err
	}
	return out.Images, nil
}

// RenderThread runs the whole pipeline and keeps the result in memory.
func (s *Service) RenderThread(ctx context.Context, cfg orchestrator.Config) (orchestrator.Output, error) {
	cfg.OutputPath = ""
	return s.orch.Produce(ctx, cfg)
}

// Markup fetches the thread and generates its markup without rendering.
func (s *Service) Markup(ctx context.Context, cfg orchestrator.Config) (orchestrator.Output, error) {
	return s.orch.Prepare(ctx, cfg)
}

// Thread returns the posts of the thread ending at leafID without
// downloading previews or rendering.
func (s *Service) Thread(ctx context.Context, leafID string, limit int) ([]ports.Post, error) {
	return s.orch.Fetch(ctx, leafID, limit)
}

// Run runs the whole pipeline and writes the images to cfg.OutputPath.
func (s *Service) Run(ctx context.Context, cfg orchestrator.Config) (orchestrator.RunResult, error) {
	return s.orch.Run(ctx, cfg)
}

// Stats reports the shared engine state. It is zero in oneshot mode.
func (s *Service) Stats() enginepool.Stats {
	if s.pool == nil {
		return enginepool.Stats{}
	}
	return s.pool.Stats()
}

// Close shuts the browser down. Renders in flight finish first.
func (s *Service) Close(ctx context.Context) error {
	return s.provider.Shutdown(ctx)
}

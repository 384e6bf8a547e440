package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/threadshot/pkg/adapters/filesink"
	"github.com/user/threadshot/pkg/adapters/filesource"
	"github.com/user/threadshot/pkg/adapters/ggrenderer"
	"github.com/user/threadshot/pkg/adapters/logger"
	"github.com/user/threadshot/pkg/adapters/osfilesystem"
	"github.com/user/threadshot/pkg/config"
	"github.com/user/threadshot/pkg/orchestrator"
	"github.com/user/threadshot/pkg/pipeline"
	"github.com/user/threadshot/pkg/ports"
	"github.com/user/threadshot/pkg/server"
	"github.com/user/threadshot/pkg/summarizer"
	"github.com/user/threadshot/pkg/threadshot"
)

const shutdownTimeout = 30 * time.Second

// session holds what every command shares.
type session struct {
	cfg      config.Config
	opts     threadshot.Options
	log      ports.Logger
	fs       ports.FileSystem
	renderer ports.Renderer
}

// loadConfig merges the config file, environment and command-line flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}

	if c.IsSet("preset") {
		cfg.Preset = c.String("preset")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.Bool("no-headless") {
		cfg.Headless = false
	}
	if c.IsSet("chrome-path") {
		cfg.ChromePath = c.String("chrome-path")
	}
	if c.Bool("oneshot") {
		cfg.Oneshot = true
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("posts") {
		cfg.PostsFile = c.String("posts")
	}
	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}

	var page pipeline.RenderConfig
	if c.IsSet("viewport-width") {
		page.ViewportWidth = pipeline.Int(c.Int("viewport-width"))
	}
	if c.IsSet("viewport-height") {
		page.ViewportHeight = pipeline.Int(c.Int("viewport-height"))
	}
	if c.IsSet("scale") {
		page.DeviceScaleFactor = pipeline.Float(c.Float64("scale"))
	}
	if c.IsSet("color-scheme") {
		page.ColorScheme = pipeline.String(c.String("color-scheme"))
	}
	if c.IsSet("locale") {
		page.Locale = pipeline.String(c.String("locale"))
	}
	if c.IsSet("timezone") {
		page.TimezoneID = pipeline.String(c.String("timezone"))
	}
	cfg.Page = cfg.Page.Merge(page)

	return cfg, nil
}

func newSession(c *cli.Context, log ports.Logger) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if log == nil {
		if c.Bool("quiet") {
			log = logger.NewNoop()
		} else {
			log = logger.NewConsole(ports.ParseLogLevel(cfg.LogLevel))
		}
	}

	opts, err := cfg.ToServiceOptions()
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:      cfg,
		log:      log,
		fs:       osfilesystem.New(),
		renderer: ggrenderer.New(),
	}
	opts.Logger = log
	opts.FileSystem = s.fs
	opts.Renderer = s.renderer

	if cfg.Debug {
		if err := s.fs.MkdirAll(cfg.DebugDir); err != nil {
			return nil, fmt.Errorf("create debug directory: %w", err)
		}
		opts.Sink = filesink.New(cfg.DebugDir, s.fs, s.renderer)
	}
	if cfg.PostsFile != "" {
		src, err := filesource.Open(cfg.PostsFile, s.fs)
		if err != nil {
			return nil, err
		}
		opts.Source = src
	}

	s.opts = opts
	return s, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func splitPolicy(c *cli.Context) pipeline.SplitPolicy {
	return pipeline.SplitPolicy{
		ItemsPerChunk: c.Int("items-per-image"),
		MaxHeight:     c.Int("max-item-height"),
	}
}

func threadConfig(c *cli.Context) (orchestrator.Config, error) {
	leafID, err := parsePostRef(c.Args().First())
	if err != nil {
		return orchestrator.Config{}, err
	}
	return orchestrator.Config{
		LeafID:              leafID,
		Limit:               c.Int("limit"),
		IsSingle:            c.Bool("single"),
		ShowConnectorOnLast: c.Bool("connector-on-last"),
		SkipMedia:           c.Bool("no-media"),
	}, nil
}

func renderAction(c *cli.Context) error {
	run, err := threadConfig(c)
	if err != nil {
		return err
	}
	return execute(c, run)
}

func htmlAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New(l10n.T("HTML file argument is required"))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read markup: %w", err)
	}
	return execute(c, orchestrator.Config{Markup: string(data)})
}

// execute runs the pipeline and writes images and the optional summary.
func execute(c *cli.Context, run orchestrator.Config) error {
	s, err := newSession(c, nil)
	if err != nil {
		return err
	}
	run.Policy = splitPolicy(c)
	if err := run.Policy.Validate(); err != nil {
		return err
	}
	run.OutputPath = c.String("output")

	ctx, cancel := signalContext(s.log)
	defer cancel()

	svc := threadshot.New(s.opts)
	defer func() {
		if err := svc.Close(context.Background()); err != nil {
			s.log.Warn("Failed to close engine: %s", err)
		}
	}()

	result, err := svc.Run(ctx, run)
	if err != nil {
		return err
	}

	if path := c.String("summary"); path != "" {
		s.writeSummary(path, run.Policy, result)
	}
	return nil
}

func (s *session) writeSummary(path string, policy pipeline.SplitPolicy, result orchestrator.RunResult) {
	page := s.opts.Defaults.PageOptions()
	summary := summarizer.NewBuilder().
		WithSettings(summarizer.Settings{
			Preset:         s.cfg.Preset,
			ViewportWidth:  page.ViewportWidth,
			ViewportHeight: page.ViewportHeight,
			ColorScheme:    page.ColorScheme,
			ItemsPerChunk:  policy.ItemsPerChunk,
			MaxHeight:      policy.MaxHeight,
		}).
		WithRunResult(result).
		Build()

	formatter := summarizer.NewMarkdownFormatter(
		summarizer.WithTranslator(l10n.T),
		summarizer.WithVersion(version),
	)
	if err := summarizer.NewWriter(formatter, s.fs).Write(path, summary); err != nil {
		s.log.Warn("Failed to write summary: %s", err)
		return
	}
	s.log.Info("Summary saved to %s", path)
}

func markupAction(c *cli.Context) error {
	run, err := threadConfig(c)
	if err != nil {
		return err
	}
	s, err := newSession(c, nil)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(s.log)
	defer cancel()

	svc := threadshot.New(s.opts)
	out, err := svc.Markup(ctx, run)
	if err != nil {
		return err
	}

	if path := c.String("output"); path != "" {
		if err := s.fs.WriteFile(path, []byte(out.Markup)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		s.log.Info("Output saved to %s", path)
		return nil
	}
	_, err = fmt.Fprint(c.App.Writer, out.Markup)
	return err
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	level := ports.ParseLogLevel(cfg.LogLevel)
	if c.Bool("quiet") {
		level = ports.LevelQuiet
	}
	log := logger.NewStructured(level)

	s, err := newSession(c, log)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	svc := threadshot.New(s.opts)
	srv := server.New(svc, s.renderer, s.cfg.ToServerOptions(), log.Slog())
	runErr := srv.Run(ctx)

	closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer closeCancel()
	if err := svc.Close(closeCtx); err != nil {
		log.Warn("Failed to close engine: %s", err)
	}
	return runErr
}

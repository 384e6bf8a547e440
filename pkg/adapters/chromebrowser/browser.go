// Package chromebrowser provides a browser engine implementation using chromedp.
package chromebrowser

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/chromedp/chromedp"

	"github.com/user/threadshot/pkg/ports"
)

// Launcher implements ports.Launcher by starting a local Chrome process.
type Launcher struct {
	logger ports.Logger
}

// NewLauncher creates a new Launcher.
func NewLauncher(logger ports.Logger) *Launcher {
	return &Launcher{logger: logger.WithComponent("browser")}
}

// Launch starts Chrome and waits until the browser target is attached.
// ctx bounds the startup only; the engine runs until Close.
func (l *Launcher) Launch(ctx context.Context, opts ports.BrowserOptions) (ports.Engine, error) {
	// Resolve Chrome path: option → CHROME_PATH env → system defaults → install
	chromePath := ResolveChromePath(opts.ChromePath)
	if chromePath == "" && opts.InstallIfMissing {
		l.logger.Info("Chrome not found, installing Chromium")
		path, err := InstallChromium()
		if err != nil {
			return nil, fmt.Errorf("install chromium: %w", err)
		}
		chromePath = path
	}
	if chromePath == "" {
		return nil, fmt.Errorf("chrome not found: please install Chrome/Chromium, set CHROME_PATH environment variable, or use --chrome-path option")
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocatorOptions(chromePath, opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	e := &Engine{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		logger:      l.logger,
	}

	stop := context.AfterFunc(ctx, e.shutdown)
	err := chromedp.Run(browserCtx)
	if !stop() {
		return nil, ctx.Err()
	}
	if err != nil {
		e.shutdown()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	l.logger.Debug("Browser started: %s", chromePath)
	return e, nil
}

// allocatorOptions builds the Chrome flags.
func allocatorOptions(chromePath string, opts ports.BrowserOptions) []chromedp.ExecAllocatorOption {
	flags := []chromedp.ExecAllocatorOption{
		chromedp.ExecPath(chromePath),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("metrics-recording-only", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("safebrowsing-disable-auto-update", true),
		// Renders are screenshots; scrollbars would end up in them.
		chromedp.Flag("hide-scrollbars", true),
	}

	if opts.Headless {
		flags = append(flags, chromedp.Flag("headless", "new"))
	}

	if opts.UserAgent != "" {
		flags = append(flags, chromedp.UserAgent(opts.UserAgent))
	}

	if opts.IgnoreHTTPSErrors {
		flags = append(flags,
			chromedp.Flag("ignore-certificate-errors", true),
			chromedp.Flag("allow-insecure-localhost", true))
	}

	if opts.ProxyServer != "" {
		flags = append(flags, chromedp.Flag("proxy-server", opts.ProxyServer))
	}

	// Server/container execution
	flags = append(flags,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-software-rasterizer", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("no-zygote", true),
	)

	return flags
}

// Engine implements ports.Engine on top of a chromedp browser context.
type Engine struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      ports.Logger

	closed atomic.Bool
	once   sync.Once
}

// NewPage opens a tab in its own browser context and applies opts.
// The tab is closed when ctx is done or the page is closed.
func (e *Engine) NewPage(ctx context.Context, opts ports.PageOptions) (ports.Page, error) {
	if !e.Alive() {
		return nil, fmt.Errorf("new page: %w", ports.ErrEngineClosed)
	}

	tabCtx, tabCancel := chromedp.NewContext(e.ctx, chromedp.WithNewBrowserContext())
	p := &Page{
		ctx:    tabCtx,
		cancel: tabCancel,
		engine: e,
	}
	p.stop = context.AfterFunc(ctx, tabCancel)
	listenCrash(tabCtx, p)

	if err := chromedp.Run(tabCtx, emulate(opts)...); err != nil {
		err = p.classify(ctx, err)
		p.Close()
		return nil, fmt.Errorf("emulate: %w", err)
	}
	return p, nil
}

// Alive reports whether the browser connection is still open.
func (e *Engine) Alive() bool {
	return !e.closed.Load() && e.ctx.Err() == nil
}

// Close shuts down the browser process.
func (e *Engine) Close() error {
	e.shutdown()
	e.logger.Debug("Browser closed")
	return nil
}

func (e *Engine) shutdown() {
	e.once.Do(func() {
		e.closed.Store(true)
		e.cancel()
		e.allocCancel()
	})
}

// Ensure Launcher and Engine implement the ports interfaces
var (
	_ ports.Launcher = (*Launcher)(nil)
	_ ports.Engine   = (*Engine)(nil)
)

package chromebrowser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/user/threadshot/pkg/ports"
)

// Viewport used when only some metrics are given.
const (
	defaultViewportWidth  = 1280
	defaultViewportHeight = 720
)

// readyPollInterval is the delay between document readiness checks.
const readyPollInterval = 10 * time.Millisecond

// Page implements ports.Page for one chromedp tab.
type Page struct {
	ctx     context.Context
	cancel  context.CancelFunc
	stop    func() bool
	engine  *Engine
	crashed atomic.Bool
}

// listenCrash flags p when its renderer process dies.
func listenCrash(ctx context.Context, p *Page) {
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch ev.(type) {
		case *inspector.EventTargetCrashed, *inspector.EventDetached:
			p.crashed.Store(true)
		}
	})
}

// emulate returns the actions applying opts to a fresh tab.
func emulate(opts ports.PageOptions) []chromedp.Action {
	var actions []chromedp.Action

	width, height := opts.ViewportWidth, opts.ViewportHeight
	if width <= 0 {
		width = defaultViewportWidth
	}
	if height <= 0 {
		height = defaultViewportHeight
	}
	metrics := emulation.SetDeviceMetricsOverride(int64(width), int64(height), opts.DeviceScaleFactor, opts.IsMobile)
	if opts.ScreenWidth > 0 && opts.ScreenHeight > 0 {
		metrics = metrics.
			WithScreenWidth(int64(opts.ScreenWidth)).
			WithScreenHeight(int64(opts.ScreenHeight))
	}
	actions = append(actions, metrics)

	if opts.HasTouch {
		actions = append(actions, emulation.SetTouchEmulationEnabled(true))
	}

	var features []*emulation.MediaFeature
	if opts.ColorScheme != "" {
		features = append(features, &emulation.MediaFeature{Name: "prefers-color-scheme", Value: opts.ColorScheme})
	}
	if opts.Contrast != "" {
		features = append(features, &emulation.MediaFeature{Name: "prefers-contrast", Value: opts.Contrast})
	}
	if opts.ForcedColors != "" {
		features = append(features, &emulation.MediaFeature{Name: "forced-colors", Value: opts.ForcedColors})
	}
	if len(features) > 0 {
		actions = append(actions, emulation.SetEmulatedMedia().WithFeatures(features))
	}

	if opts.Locale != "" {
		actions = append(actions, emulation.SetLocaleOverride().WithLocale(opts.Locale))
	}
	if opts.TimezoneID != "" {
		actions = append(actions, emulation.SetTimezoneOverride(opts.TimezoneID))
	}

	return actions
}

// SetContent replaces the main frame document with markup.
func (p *Page) SetContent(ctx context.Context, markup string) error {
	err := chromedp.Run(p.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		return page.SetDocumentContent(tree.Frame.ID, markup).Do(ctx)
	}))
	return p.classify(ctx, err)
}

const readyScript = `(() => ({
	ready: document.readyState !== "loading",
	found: document.querySelector(%s) !== null
}))()`

// WaitReady waits for DOM construction and checks that selector matches.
// It does not wait for network quiescence.
func (p *Page) WaitReady(ctx context.Context, selector string) error {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return err
	}
	script := fmt.Sprintf(readyScript, quoted)

	for {
		var state struct {
			Ready bool `json:"ready"`
			Found bool `json:"found"`
		}
		if err := chromedp.Run(p.ctx, chromedp.Evaluate(script, &state)); err != nil {
			return p.classify(ctx, err)
		}
		if state.Ready {
			if !state.Found {
				return fmt.Errorf("%w: no element matches %s", ports.ErrInvalidMarkup, selector)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readyPollInterval):
		}
	}
}

const rectsScript = `(() => {
	const root = document.querySelector(%s);
	if (!root) return {found: false, rects: []};
	const origin = root.getBoundingClientRect();
	const rects = Array.from(root.querySelectorAll(%s)).map((el) => {
		const r = el.getBoundingClientRect();
		return {x: r.left - origin.left, y: r.top - origin.top, width: r.width, height: r.height};
	});
	return {found: true, rects};
})()`

// Capture screenshots the container and measures its items in one run.
func (p *Page) Capture(ctx context.Context, container, item string) ([]byte, []ports.RawRect, error) {
	qc, err := json.Marshal(container)
	if err != nil {
		return nil, nil, err
	}
	qi, err := json.Marshal(item)
	if err != nil {
		return nil, nil, err
	}

	var geometry struct {
		Found bool            `json:"found"`
		Rects []ports.RawRect `json:"rects"`
	}
	var buf []byte
	err = chromedp.Run(p.ctx,
		chromedp.Evaluate(fmt.Sprintf(rectsScript, qc, qi), &geometry),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if !geometry.Found {
				return fmt.Errorf("%w: no element matches %s", ports.ErrInvalidMarkup, container)
			}
			return nil
		}),
		chromedp.Screenshot(container, &buf, chromedp.ByQuery),
	)
	if err != nil {
		return nil, nil, p.classify(ctx, err)
	}
	return buf, geometry.Rects, nil
}

// Close closes the tab and disposes its browser context.
func (p *Page) Close() error {
	p.stop()
	p.cancel()
	return nil
}

// classify maps chromedp failures onto the ports error classes.
// Caller cancellation wins over everything else.
func (p *Page) classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ports.ErrInvalidMarkup) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if p.crashed.Load() || !p.engine.Alive() ||
		errors.Is(err, chromedp.ErrChannelClosed) ||
		errors.Is(err, chromedp.ErrInvalidTarget) ||
		errors.Is(err, chromedp.ErrInvalidContext) ||
		errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ports.ErrEngineClosed, err)
	}
	return err
}

// Ensure Page implements ports.Page
var _ ports.Page = (*Page)(nil)

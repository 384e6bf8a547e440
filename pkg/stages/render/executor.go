// Package render implements the render stage: markup in, raster and item
// geometry out.
package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/threadshot/pkg/pipeline"
	"github.com/user/threadshot/pkg/ports"
)

// Default selectors of the thread template.
const (
	DefaultContainerSelector = ".thread-container"
	DefaultItemSelector      = ".thread-item"
)

// Executor performs a single render pass on an engine it does not own.
type Executor struct {
	renderer  ports.Renderer
	logger    ports.Logger
	container string
	item      string
}

// NewExecutor creates an Executor using the default selectors.
func NewExecutor(renderer ports.Renderer, logger ports.Logger) *Executor {
	return &Executor{
		renderer:  renderer,
		logger:    logger.WithComponent("render"),
		container: DefaultContainerSelector,
		item:      DefaultItemSelector,
	}
}

// WithSelectors overrides the container and item selectors.
func (e *Executor) WithSelectors(container, item string) *Executor {
	if container != "" {
		e.container = container
	}
	if item != "" {
		e.item = item
	}
	return e
}

// Render loads markup into a fresh page of engine and captures the
// container together with its items. The page is closed before Render
// returns; the engine is left running.
func (e *Executor) Render(ctx context.Context, engine ports.Engine, markup string, cfg pipeline.RenderConfig) (pipeline.RenderResult, error) {
	if strings.TrimSpace(markup) == "" {
		return pipeline.RenderResult{}, fmt.Errorf("%w: empty document", ports.ErrInvalidMarkup)
	}
	if err := cfg.Validate(); err != nil {
		return pipeline.RenderResult{}, err
	}

	resolved := cfg.Resolve()
	page, err := engine.NewPage(ctx, resolved.PageOptions())
	if err != nil {
		return pipeline.RenderResult{}, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			e.logger.Debug("Failed to close page: %s", err)
		}
	}()

	if err := page.SetContent(ctx, markup); err != nil {
		return pipeline.RenderResult{}, fmt.Errorf("set content: %w", err)
	}
	if err := page.WaitReady(ctx, e.container); err != nil {
		return pipeline.RenderResult{}, fmt.Errorf("wait for %s: %w", e.container, err)
	}

	data, raw, err := page.Capture(ctx, e.container, e.item)
	if err != nil {
		return pipeline.RenderResult{}, fmt.Errorf("capture: %w", err)
	}

	img, err := e.renderer.DecodeImage(data, ports.FormatPNG)
	if err != nil {
		return pipeline.RenderResult{}, fmt.Errorf("decode screenshot: %w", err)
	}

	scale := resolved.Scale()
	rects := pipeline.NormalizeRects(raw, scale)
	b := img.Bounds()
	e.logger.Debug("Captured %dx%d with %d items at scale %.2f", b.Dx(), b.Dy(), len(rects), scale)

	return pipeline.RenderResult{
		Image: img,
		Rects: rects,
		Scale: scale,
	}, nil
}
